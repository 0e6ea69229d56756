package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"screen-ocr/internal/config"
	"screen-ocr/internal/domain"
	"screen-ocr/internal/engine"
	"screen-ocr/internal/engine/tesseract"
	"screen-ocr/internal/langs"
	"screen-ocr/internal/ocr"
)

const usage = `usage: ocrlangs [flags] [list | install CODE... | remove CODE...]

Without a command, ocrlangs opens the interactive language manager.
`

func main() {
	configPath := flag.String("config", config.DefaultPath(), "settings file")
	dataDir := flag.String("data-dir", "", "language data directory (overrides settings)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(*configPath, *dataDir, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, dataDir string, args []string) error {
	settings, err := config.NewFileStore(configPath).Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if dataDir != "" {
		settings.DataDir = dataDir
	}

	logger, closer, err := config.SetupLogger(settings.Logging)
	if err != nil {
		logger = config.NullLogger()
	} else {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	service := ocr.NewService([]engine.Engine{tesseract.New(logger)}, ocr.Options{
		UserAgent:   settings.UserAgent,
		InfoFileURL: settings.InfoFileURL,
		Logger:      logger,
	})
	catalog, err := service.CreateLangCatalog(settings.EngineID, settings.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open language manager: %w", err)
	}
	defer catalog.Close()

	if len(args) == 0 {
		p := tea.NewProgram(newModel(catalog), tea.WithAltScreen())
		_, err := p.Run()
		return err
	}

	switch args[0] {
	case "list":
		if err := fetch(catalog); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		fmt.Println(renderTable(catalog.Langs(), -1))
		return nil
	case "install":
		if len(args) < 2 {
			return errors.New("install needs at least one language code")
		}
		if err := fetch(catalog); err != nil {
			return err
		}
		return install(catalog, args[1:])
	case "remove":
		if len(args) < 2 {
			return errors.New("remove needs at least one language code")
		}
		for _, code := range args[1:] {
			if err := catalog.RemoveLang(code); err != nil {
				return err
			}
			fmt.Printf("removed %s\n", code)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// fetch downloads and merges the remote language list.
func fetch(catalog *langs.Catalog) error {
	if err := catalog.StartFetchExternal(); err != nil {
		return err
	}
	return describe(catalog.LoadFetchedExternal())
}

// install marks codes and polls the install until it ends.
func install(catalog *langs.Catalog, codes []string) error {
	for _, code := range codes {
		catalog.SetInstallMark(code, true)
	}
	if err := catalog.StartInstall(); err != nil {
		return err
	}

	last := domain.InstallProgress{}
	for catalog.InstallStatus().Code == domain.OpStatusInProgress {
		if p := catalog.InstallProgress(); p != last && p.Code != "" {
			fmt.Printf("\r[%d/%d] %s %s", p.Index, p.Total, p.Code, percentText(p.Percent))
			last = p
		}
		time.Sleep(100 * time.Millisecond)
	}
	fmt.Println()

	status := catalog.InstallStatus()
	if status.Code.IsError() {
		return describe(&domain.LangManagerError{
			Message: status.ErrorText,
			Network: status.Code == domain.OpStatusNetworkError,
		})
	}
	fmt.Printf("installed %s\n", strings.Join(codes, ", "))
	return nil
}

// describe adds a connectivity hint to network errors.
func describe(err error) error {
	if err != nil && domain.IsNetworkError(err) {
		return fmt.Errorf("%w. Check your internet connection", err)
	}
	return err
}

func percentText(percent int) string {
	if percent < 0 {
		return "..."
	}
	return fmt.Sprintf("%3d%%", percent)
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	installedText = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	updateText    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimText       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// renderTable formats catalog entries, highlighting the row at cursor.
func renderTable(entries []domain.CatalogEntry, cursor int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("    %-12s %-28s %-16s %10s", "CODE", "NAME", "STATE", "SIZE")))
	b.WriteByte('\n')
	for i, e := range entries {
		mark := "[ ]"
		if e.InstallMark {
			mark = "[x]"
		}
		state := stateText(e.State)
		row := fmt.Sprintf("%s %-12s %-28s %-16s %10s", mark, e.Code, truncate(e.Name, 28), state, sizeText(e.Size))
		switch {
		case i == cursor:
			row = cursorStyle.Render(row)
		case e.State == domain.LangStateInstalled:
			row = installedText.Render(row)
		case e.State == domain.LangStateUpdateAvailable:
			row = updateText.Render(row)
		}
		b.WriteString(row)
		b.WriteByte('\n')
	}
	if len(entries) == 0 {
		b.WriteString(dimText.Render("no languages"))
		b.WriteByte('\n')
	}
	return b.String()
}

func stateText(s domain.LangState) string {
	switch s {
	case domain.LangStateInstalled:
		return "installed"
	case domain.LangStateUpdateAvailable:
		return "update available"
	default:
		return "not installed"
	}
}

func sizeText(size domain.LangSize) string {
	n := size.External
	if n < 0 {
		n = size.Local
	}
	if n < 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
