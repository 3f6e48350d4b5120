package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coursegrid/coursegrid/internal/config"
	"github.com/coursegrid/coursegrid/internal/modulestore"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:     "validate [course-dir]",
	Aliases: []string{"v"},
	Short:   "Check that a course imports cleanly",
	Long: `Import the course tree and report every content node that failed
to load. Failed nodes are substituted with error placeholders during a
normal import; validate surfaces them instead of hiding them behind the
running server.

Exits non-zero if any node failed.

Examples:
  coursegrid validate ./course
  coursegrid validate --org MITx --course 6.002x ./course`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidateCommand,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().String("org", "", "organization for generated locations")
	validateCmd.Flags().String("course", "", "course id for generated locations")

	viper.BindPFlag("course.org", validateCmd.Flags().Lookup("org"))
	viper.BindPFlag("course.course", validateCmd.Flags().Lookup("course"))
}

func runValidateCommand(cmd *cobra.Command, args []string) error {
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

	store, importer, root, err := importCourse(cmd.Context(), cfg, reg, logger)
	if err != nil {
		return fmt.Errorf("importing course from %s: %w", cfg.Course.Dir, err)
	}

	fmt.Printf("Imported %d items from %s (root %s)\n",
		store.Count(), cfg.Course.Dir, root.Location().URL())

	if len(importer.LoadErrors) > 0 {
		reportLoadErrors(importer.LoadErrors)
		return fmt.Errorf("%d content nodes failed to load", len(importer.LoadErrors))
	}

	fmt.Println("Course is valid")
	return nil
}

// reportLoadErrors prints the nodes that were substituted with error
// placeholders during import.
func reportLoadErrors(loadErrors []modulestore.LoadError) {
	for _, loadErr := range loadErrors {
		fmt.Fprintf(os.Stderr, "error: %s: %s", loadErr.Location.URL(), loadErr.Message)
		if loadErr.Cause != nil {
			fmt.Fprintf(os.Stderr, ": %v", loadErr.Cause)
		}
		fmt.Fprintln(os.Stderr)
	}
}
