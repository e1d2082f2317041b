package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/tutorlens/internal/aggregate"
	"github.com/pavelanni/tutorlens/internal/dataset"
	"github.com/pavelanni/tutorlens/internal/handler"
	appI18n "github.com/pavelanni/tutorlens/internal/i18n"
	"github.com/pavelanni/tutorlens/internal/llm"
	"github.com/pavelanni/tutorlens/internal/metrics"
	"github.com/pavelanni/tutorlens/internal/model"
	"github.com/pavelanni/tutorlens/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tutorlens",
		Short: "Dashboard for comparing AI tutor evaluations",
	}

	serve := serveCmd()
	root.AddCommand(serve, summaryCmd(), feedbackCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `tutorlens --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func logFlags(f *pflag.FlagSet) {
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func datasetFlags(f *pflag.FlagSet) {
	f.StringP("dataset", "d", "data/evaluation.json", "Evaluation dataset path or s3://bucket/key (.json or .jsonl)")
	f.String("viz-dataset", "", "Visualization dataset path or s3:// URI (default: --dataset)")
	f.Bool("auto-fallback-to-human", false, "Use human annotations when a record has no auto annotations")
	f.String("s3-endpoint", "", "S3-compatible endpoint URL (e.g. MinIO)")
	f.String("s3-region", "us-east-1", "S3 region")
	f.String("s3-access-key", "", "S3 access key (default: AWS credential chain)")
	f.String("s3-secret-key", "", "S3 secret key")
}

func storeFlags(f *pflag.FlagSet) {
	f.String("store", "sqlite", "Feedback store backend (sqlite, redis)")
	f.String("db", "tutorlens.db", "SQLite database path")
	f.String("redis-url", "redis://localhost:6379/0", "Redis URL (redis:// or rediss://)")
	f.String("feedback-key", store.DefaultFeedbackKey, "Key the feedback log is stored under")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	datasetFlags(f)
	storeFlags(f)
	f.String("tie-mode", "exact", "Leaderboard tie rule for judge scores (exact, tolerance)")
	f.StringSlice("judge-allowlist", nil, "Judges offered in the LLM view (default: all found in the dataset)")
	f.String("llm-url", "", "OpenAI-compatible API base URL for live evaluation (empty disables it)")
	f.String("llm-key", "EMPTY", "API key for the live judge")
	f.String("llm-model", "microsoft/phi-4", "Live judge model name")
	f.Bool("llm-chat", false, "Use chat completions instead of raw completions")
	f.Int("llm-concurrency", 4, "Parallel judge calls per evaluation")
	f.Float64("llm-rps", 0, "Judge request rate limit per second (0 = unlimited)")
	f.StringP("lang", "l", "en", "Default UI language (en, ru)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /tutorlens)")
	logFlags(f)
	return cmd
}

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dataset summary as JSON",
		RunE:  runSummary,
	}
	f := cmd.Flags()
	datasetFlags(f)
	f.String("source", "human", "Annotation set to aggregate (human, auto, llm)")
	f.String("judge", "", "Restrict llm scores to one judge")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	logFlags(f)
	return cmd
}

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Work with stored feedback",
	}
	export := &cobra.Command{
		Use:   "export",
		Short: "Export stored feedback as JSON or a per-tutor tally",
		RunE:  runFeedbackExport,
	}
	f := export.Flags()
	storeFlags(f)
	f.String("module", "", "Only feedback from this module (autoeval, llmeval)")
	f.String("topic", "", "Only feedback for this problem topic")
	f.String("tutor", "", "Only feedback naming this tutor")
	f.String("format", "json", "Output format (json, tally)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	logFlags(f)
	cmd.AddCommand(export)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("TUTORLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("tutorlens")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/tutorlens")
	v.AddConfigPath("/etc/tutorlens")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func newLoader(v *viper.Viper) *dataset.Loader {
	return dataset.NewLoader(v.GetString("dataset"), v.GetString("viz-dataset"), dataset.S3Options{
		Endpoint:  v.GetString("s3-endpoint"),
		Region:    v.GetString("s3-region"),
		AccessKey: v.GetString("s3-access-key"),
		SecretKey: v.GetString("s3-secret-key"),
	})
}

func openBlob(ctx context.Context, v *viper.Viper) (store.Blob, error) {
	switch backend := strings.ToLower(v.GetString("store")); backend {
	case "", "sqlite":
		db, err := store.New(v.GetString("db"))
		if err != nil {
			return nil, err
		}
		return db, nil
	case "redis":
		rdb, err := store.NewRedis(ctx, v.GetString("redis-url"))
		if err != nil {
			return nil, err
		}
		return rdb, nil
	default:
		return nil, fmt.Errorf("unknown store %q (want sqlite or redis)", backend)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	blob, err := openBlob(ctx, v)
	if err != nil {
		return fmt.Errorf("open feedback store: %w", err)
	}
	defer blob.Close()
	feedback := store.NewFeedback(blob, v.GetString("feedback-key"))

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	var judge *llm.Judge
	if url := v.GetString("llm-url"); url != "" {
		judge, err = llm.New(llm.Options{
			BaseURL:     url,
			APIKey:      v.GetString("llm-key"),
			Model:       v.GetString("llm-model"),
			Chat:        v.GetBool("llm-chat"),
			Concurrency: v.GetInt("llm-concurrency"),
			RPS:         v.GetFloat64("llm-rps"),
		})
		if err != nil {
			return fmt.Errorf("create LLM judge: %w", err)
		}
	} else {
		slog.Info("live evaluation disabled: no --llm-url")
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.DashboardConfig{
		BasePath:            basePath,
		TieMode:             v.GetString("tie-mode"),
		AutoFallbackToHuman: v.GetBool("auto-fallback-to-human"),
		JudgeAllowlist:      v.GetStringSlice("judge-allowlist"),
		Lang:                lang,
	}

	m := metrics.New()
	h, err := handler.New(newLoader(v), feedback, judge, m, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"dataset", v.GetString("dataset"),
		"viz_dataset", v.GetString("viz-dataset"),
		"store", v.GetString("store"),
		"tie_mode", cfg.TieMode,
		"live_judge", judge != nil,
		"lang", lang,
		"base_path", basePath,
	)
	return http.ListenAndServe(addr, r)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	src, ok := aggregate.ParseSource(v.GetString("source"))
	if !ok {
		return fmt.Errorf("unknown source %q (want human, auto or llm)", v.GetString("source"))
	}
	ds, err := newLoader(v).Load(ctx, dataset.Visualization)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	convs := ds.Conversations(dataset.NormalizeOptions{AutoFallbackToHuman: v.GetBool("auto-fallback-to-human")})
	summary, err := aggregate.Aggregate(convs, aggregate.Options{Source: src, Judge: v.GetString("judge")})
	if err != nil {
		return fmt.Errorf("aggregate %s: %w", ds.Name, err)
	}
	summary.DatasetDigest = ds.Digest

	return writeOutput(v.GetString("output"), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	})
}

func runFeedbackExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	blob, err := openBlob(ctx, v)
	if err != nil {
		return fmt.Errorf("open feedback store: %w", err)
	}
	defer blob.Close()
	feedback := store.NewFeedback(blob, v.GetString("feedback-key"))

	filter := model.FeedbackFilter{
		Module: v.GetString("module"),
		Topic:  v.GetString("topic"),
		Tutor:  v.GetString("tutor"),
	}

	switch format := strings.ToLower(v.GetString("format")); format {
	case "json":
		log, err := feedback.Query(ctx, filter)
		if err != nil {
			return fmt.Errorf("query feedback: %w", err)
		}
		return writeOutput(v.GetString("output"), func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(log)
		})
	case "tally":
		tally, err := feedback.Tally(ctx, filter)
		if err != nil {
			return fmt.Errorf("tally feedback: %w", err)
		}
		return writeOutput(v.GetString("output"), func(w io.Writer) error {
			return writeTally(w, tally)
		})
	default:
		return fmt.Errorf("unknown format %q (want json or tally)", format)
	}
}

func writeTally(w io.Writer, tally []store.TutorTally) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TUTOR\tHELPFUL\tTO SOME EXTENT\tNOT HELPFUL\tPREFERRED\tCOMPARED")
	for _, t := range tally {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n",
			t.Tutor, t.Helpful, t.ToSomeExtent, t.NotHelpful, t.Preferred, t.Compared)
	}
	return tw.Flush()
}

// writeOutput runs write against stdout for "" or "-", else against a new file.
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	return f.Close()
}
