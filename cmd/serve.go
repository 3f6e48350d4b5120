package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coursegrid/coursegrid/internal/config"
	"github.com/coursegrid/coursegrid/internal/modulestore"
	"github.com/coursegrid/coursegrid/internal/renderer"
	"github.com/coursegrid/coursegrid/internal/runtime"
	"github.com/coursegrid/coursegrid/internal/server"
	"github.com/coursegrid/coursegrid/internal/statestore"
	"github.com/coursegrid/coursegrid/internal/tracker"
	"github.com/coursegrid/coursegrid/internal/watcher"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:     "serve [course-dir]",
	Aliases: []string{"s"},
	Short:   "Serve a course with per-student state and live reload",
	Long: `Import the course tree and start the courseware server.

The server renders content modules per student, dispatches ajax calls
back to them, and persists module state in SQLite. With --watch the
course directory is monitored and re-imported on change, and connected
browsers reload automatically.

Examples:
  coursegrid serve ./course
  coursegrid serve ./course --port 3000 --watch=false
  coursegrid serve --org MITx --course 6.002x ./course`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServeCommand,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("host", "localhost", "server host")
	serveCmd.Flags().String("org", "", "organization for generated locations")
	serveCmd.Flags().String("course", "", "course id for generated locations")
	serveCmd.Flags().Bool("watch", true, "re-import the course when files change")
	serveCmd.Flags().String("state", "", "path of the student state database")
	serveCmd.Flags().String("templates", "", "directory of content template overrides")
	serveCmd.Flags().String("events", "", "append tracked events to this file as JSON lines")
	serveCmd.Flags().Bool("debug", false, "run modules in debug mode")

	addFlagValidation(serveCmd, "port", validatePort)

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("course.org", serveCmd.Flags().Lookup("org"))
	viper.BindPFlag("course.course", serveCmd.Flags().Lookup("course"))
	viper.BindPFlag("course.watch", serveCmd.Flags().Lookup("watch"))
	viper.BindPFlag("course.template_dir", serveCmd.Flags().Lookup("templates"))
	viper.BindPFlag("state.path", serveCmd.Flags().Lookup("state"))
	viper.BindPFlag("state.event_file", serveCmd.Flags().Lookup("events"))
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		viper.Set("course.dir", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, _, err := newContentRegistry(logger)
	if err != nil {
		return err
	}

	store, importer, root, err := importCourse(ctx, cfg, reg, logger)
	if err != nil {
		return fmt.Errorf("importing course from %s: %w", cfg.Course.Dir, err)
	}
	reportLoadErrors(importer.LoadErrors)

	if dir := filepath.Dir(cfg.State.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	states, err := statestore.Open(cfg.State.Path)
	if err != nil {
		return err
	}
	defer states.Close()

	events, err := tracker.New(logger, cfg.State.EventFile)
	if err != nil {
		return err
	}
	defer events.Close()

	debug, _ := cmd.Flags().GetBool("debug")
	templates := renderer.NewTemplateRenderer(cfg.Course.TemplateDir)
	host := &runtime.Host{
		Store:     store,
		States:    states,
		Renderer:  templates,
		Rewriter:  renderer.NewURLRewriter("/static/"),
		Tracker:   events,
		Resources: os.DirFS(cfg.Course.Dir),
		Logger:    logger,
		Debug:     debug,
	}

	srv := server.New(cfg, host, root, logger)

	if cfg.Course.Watch {
		fw, err := watcher.NewFileWatcher(300*time.Millisecond, logger)
		if err != nil {
			return err
		}
		fw.AddFilter(watcher.CourseFileFilter)
		fw.AddHandler(func(changes []watcher.ChangeEvent) {
			logger.Info(ctx, "course changed, re-importing", "changes", len(changes))

			// Import into a fresh store; the live one keeps serving the
			// previous course until the new tree is complete.
			staged := modulestore.NewStore()
			staging := modulestore.NewImporter(reg, staged, logger)
			newRoot, err := staging.ImportCourse(ctx, os.DirFS(cfg.Course.Dir), cfg.Course.Org, cfg.Course.Course)
			if err != nil {
				logger.Error(ctx, err, "re-import failed, keeping previous course")
				return
			}
			reportLoadErrors(staging.LoadErrors)
			templates.Invalidate()
			store.Replace(staged)
			srv.SetRoot(newRoot)
		})
		if err := fw.AddRecursive(cfg.Course.Dir); err != nil {
			return err
		}
		fw.Start(ctx)
	}

	return srv.Start(ctx)
}
