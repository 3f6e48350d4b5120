package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coursegrid/coursegrid/internal/config"
	"github.com/coursegrid/coursegrid/internal/modulestore"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [course-dir]",
	Short: "Re-export an imported course as XML",
	Long: `Import the course tree and write it back out as a single XML
document. Authored metadata is preserved; metadata that was only
inherited from ancestors is not written, so a round trip does not bake
policy values into child nodes.

Examples:
  coursegrid export ./course
  coursegrid export ./course -o course-export.xml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExportCommand,
}

var exportOutput string

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
	exportCmd.Flags().String("org", "", "organization for generated locations")
	exportCmd.Flags().String("course", "", "course id for generated locations")

	viper.BindPFlag("course.org", exportCmd.Flags().Lookup("org"))
	viper.BindPFlag("course.course", exportCmd.Flags().Lookup("course"))
}

func runExportCommand(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		viper.Set("course.dir", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	reg, _, err := newContentRegistry(logger)
	if err != nil {
		return err
	}

	_, importer, root, err := importCourse(cmd.Context(), cfg, reg, logger)
	if err != nil {
		return fmt.Errorf("importing course from %s: %w", cfg.Course.Dir, err)
	}
	reportLoadErrors(importer.LoadErrors)

	out := os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	return modulestore.ExportCourse(root, out)
}
