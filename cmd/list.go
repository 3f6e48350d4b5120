package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coursegrid/coursegrid/internal/config"
)

var listFormat string

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:     "list {plugins|categories|items} [course-dir]",
	Aliases: []string{"l"},
	Short:   "List plugins, content categories or course items",
	Long: `List what the runtime knows about.

  plugins      Installed content plugins and their versions
  categories   Content categories the registry can resolve
  items        Every location in an imported course

Examples:
  coursegrid list plugins
  coursegrid list categories --format json
  coursegrid list items ./course`,
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{"plugins", "categories", "items"},
	RunE:      runListCommand,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "text", "Output format (text, json)")
	listCmd.Flags().String("org", "", "organization for generated locations")
	listCmd.Flags().String("course", "", "course id for generated locations")

	viper.BindPFlag("course.org", listCmd.Flags().Lookup("org"))
	viper.BindPFlag("course.course", listCmd.Flags().Lookup("course"))
}

func runListCommand(cmd *cobra.Command, args []string) error {
	if args[0] == "items" && len(args) > 1 {
		viper.Set("course.dir", args[1])
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	reg, manager, err := newContentRegistry(logger)
	if err != nil {
		return err
	}

	switch args[0] {
	case "plugins":
		infos := manager.List()
		if listFormat == "json" {
			return json.NewEncoder(os.Stdout).Encode(infos)
		}
		for _, info := range infos {
			fmt.Printf("%s %s\t%s\n", info.Name, info.Version, info.Description)
		}
		return nil

	case "categories":
		categories := reg.Categories()
		if listFormat == "json" {
			return json.NewEncoder(os.Stdout).Encode(categories)
		}
		for _, category := range categories {
			fmt.Println(category)
		}
		return nil

	case "items":
		store, importer, _, err := importCourse(cmd.Context(), cfg, reg, logger)
		if err != nil {
			return fmt.Errorf("importing course from %s: %w", cfg.Course.Dir, err)
		}
		reportLoadErrors(importer.LoadErrors)

		locations := store.Locations()
		if listFormat == "json" {
			urls := make([]string, len(locations))
			for i, loc := range locations {
				urls[i] = loc.URL()
			}
			return json.NewEncoder(os.Stdout).Encode(urls)
		}
		for _, loc := range locations {
			fmt.Println(loc.URL())
		}
		return nil

	default:
		return fmt.Errorf("unknown list target: %s (supported: plugins, categories, items)", args[0])
	}
}
