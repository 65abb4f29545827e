package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/questionbd/internal/assistant"
	"github.com/pavelanni/questionbd/internal/handler"
	appI18n "github.com/pavelanni/questionbd/internal/i18n"
	"github.com/pavelanni/questionbd/internal/logging"
	"github.com/pavelanni/questionbd/internal/model"
	"github.com/pavelanni/questionbd/internal/search"
	"github.com/pavelanni/questionbd/internal/security"
	"github.com/pavelanni/questionbd/internal/session"
	"github.com/pavelanni/questionbd/internal/store"
	"github.com/pavelanni/questionbd/internal/taxonomy"
	"github.com/pavelanni/questionbd/internal/validate"
)

const (
	adminEmail = "admin@qbd.com"
	adminPhone = "+8801700000000"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "questionbd",
		Short: "Exam past-paper library with paid unlocks",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd(), searchCmd(), hashPasswordCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `questionbd --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addLogFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	f.String("log-file", "", "Also write logs to this file, rotated by size")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "questionbd.db", "SQLite database path")
	f.StringSlice("catalog", nil, "Catalog JSON files to import once (repeatable)")
	f.StringP("lang", "l", "en", "Default language (en, bn)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /qbd)")
	f.Bool("secure-cookies", true, "Set Secure flag on cookies")
	f.String("password-hash", "bcrypt", "Hash for new passwords (bcrypt, argon2id)")
	f.String("admin-password", "", "Initial admin password (or set QBD_ADMIN_PASSWORD)")
	f.String("payee", "01757798062", "Mobile number payments are sent to")
	f.String("fee", "50 BDT", "Unlock fee shown to users")
	f.Bool("expose-otp", false, "Return issued passcodes in API responses (no SMS gateway)")
	f.String("llm-base-url", "", "OpenAI-compatible API base URL for the study assistant")
	f.String("llm-api-key", "", "API key for the study assistant")
	f.String("llm-model", "", "Model name for the study assistant (empty disables it)")
	addLogFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog and unlock requests as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "questionbd.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(cmd)
	return cmd
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the catalog from the command line",
		RunE:  runSearch,
	}
	f := cmd.Flags()
	f.String("db", "questionbd.db", "SQLite database path")
	f.String("category", "", "Only this exam type (SSC, HSC, NU, BCS)")
	f.String("board", "", "Only this education board")
	f.String("group", "", "Only this group or program")
	f.String("department", "", "Only this NU department")
	f.Int("year", 0, "Only this year")
	f.BoolP("interactive", "i", false, "Read queries from stdin, searching once typing pauses")
	f.Duration("window", search.DefaultWindow, "Pause before an interactive query runs")
	addLogFlags(cmd)
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password read from stdin",
		RunE:  runHashPassword,
	}
	cmd.Flags().String("password-hash", "bcrypt", "Hash algorithm (bcrypt, argon2id)")
	addLogFlags(cmd)
	return cmd
}

func setupLogging(v *viper.Viper) (io.Closer, error) {
	_, closer, err := logging.New(logging.Options{
		Level:  v.GetString("log-level"),
		Format: v.GetString("log-format"),
		File:   v.GetString("log-file"),
	})
	return closer, err
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("QBD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("questionbd")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/questionbd")
	v.AddConfigPath("/etc/questionbd")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	logCloser, err := setupLogging(v)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logCloser.Close()

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	hasher, err := security.NewHasher(v.GetString("password-hash"))
	if err != nil {
		return err
	}
	if err := seedAdmin(db, hasher, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := importCatalogs(db, v.GetStringSlice("catalog")); err != nil {
		return fmt.Errorf("import catalog: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	var asst *assistant.Client
	if m := v.GetString("llm-model"); m != "" {
		asst = assistant.New(v.GetString("llm-base-url"), v.GetString("llm-api-key"), m)
		slog.Info("study assistant enabled", "model", m, "url", v.GetString("llm-base-url"))
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.AppConfig{
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
		Payee:         v.GetString("payee"),
		Fee:           v.GetString("fee"),
		ExposeOTP:     v.GetBool("expose-otp"),
	}
	if cfg.ExposeOTP {
		slog.Warn("passcodes are returned in API responses; do not use in production")
	}

	h, err := handler.New(db, session.NewManager(db), hasher, asst, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware)

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db", v.GetString("db"),
		"lang", lang,
		"base_path", basePath,
		"password_hash", v.GetString("password-hash"),
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	logCloser, err := setupLogging(v)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logCloser.Close()

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportCatalog()
	if err != nil {
		return fmt.Errorf("export catalog: %w", err)
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)
	logCloser, err := setupLogging(v)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logCloser.Close()

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	rt := taxonomy.NewRouter(db)
	base := taxonomy.SearchQuery{
		Category:   model.Category(v.GetString("category")),
		Board:      v.GetString("board"),
		Group:      v.GetString("group"),
		Department: v.GetString("department"),
		Year:       v.GetInt("year"),
	}
	out := cmd.OutOrStdout()
	var (
		mu     sync.Mutex
		closed bool
	)
	run := func(text string) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		q := base
		q.Text = text
		hits, err := rt.Search(q, nil, nil)
		if err != nil {
			slog.Error("search failed", "error", err)
			return
		}
		printHits(out, taxonomy.NormalizeQuery(text), hits)
	}

	if !v.GetBool("interactive") {
		run(strings.Join(args, " "))
		return nil
	}

	d := search.NewDebouncer(v.GetDuration("window"))
	var (
		lastMu sync.Mutex
		last   string
		ran    bool
	)
	sc := bufio.NewScanner(cmd.InOrStdin())
	for sc.Scan() {
		text := sc.Text()
		lastMu.Lock()
		last, ran = text, false
		lastMu.Unlock()
		d.Trigger(func() {
			lastMu.Lock()
			ran = true
			lastMu.Unlock()
			run(text)
		})
	}
	// Input ended: run the final query now instead of waiting out the window.
	d.Stop()
	lastMu.Lock()
	pending := !ran && last != ""
	lastMu.Unlock()
	if pending {
		run(last)
	}
	mu.Lock()
	closed = true
	mu.Unlock()
	return sc.Err()
}

func printHits(w io.Writer, query string, hits []taxonomy.Hit) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "# %q: %d result(s)\n", query, len(hits))
	for _, h := range hits {
		lock := ""
		if h.Locked {
			lock = "locked"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.Document.ID, h.Document.Category, h.Document.Title, lock)
	}
	tw.Flush()
}

func runHashPassword(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	hasher, err := security.NewHasher(v.GetString("password-hash"))
	if err != nil {
		return err
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	hash, err := hasher.Hash(strings.TrimRight(line, "\r\n"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
	return err
}

// importCatalogs loads each catalog file once. A file that changed since
// its import is skipped so existing document ids stay stable.
func importCatalogs(db *store.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		storedHash, err := db.GetImportedFileHash(path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}
		if storedHash == store.FileHash(data) {
			slog.Info("catalog file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" {
			slog.Warn("catalog file changed since last import, skipping to keep document ids stable",
				"path", path)
			continue
		}

		if _, err := db.ImportCatalog(path, data, validate.Document); err != nil {
			return err
		}
	}
	return nil
}

func seedAdmin(db *store.Store, hasher security.Hasher, password string) error {
	existing, err := db.GetUserByIdentifier(adminEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or QBD_ADMIN_PASSWORD env var")
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateAdmin(model.Account{
		AccountName:  "admin",
		FirstName:    "Admin",
		Email:        adminEmail,
		Phone:        adminPhone,
		PasswordHash: hash,
	})
	if err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}

	slog.Info("seeded default admin account", "email", adminEmail)
	return nil
}
