package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"labelgen"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/term"
)

type config struct {
	start, end  int
	template    string
	header      string
	out         string
	templates   string
	dpi         float64
	scale       float64
	font        string
	download    bool
	interactive bool
}

func main() {
	var cfg config
	flag.IntVar(&cfg.start, "start", 1, "первый номер диапазона")
	flag.IntVar(&cfg.end, "end", 30, "последний номер диапазона (включительно)")
	flag.StringVar(&cfg.template, "template", "Avery 5160 (30 labels)", "имя шаблона листа этикеток")
	flag.StringVar(&cfg.header, "header", "", "заголовок над каждым штрихкодом")
	flag.StringVar(&cfg.out, "out", "labels.pdf", "результат PDF")
	flag.StringVar(&cfg.templates, "templates", "", "JSON с дополнительными шаблонами")
	flag.Float64Var(&cfg.dpi, "dpi", labelgen.DefaultDPI, "разрешение растра штрихкода")
	flag.Float64Var(&cfg.scale, "scale", 1.0, "масштаб модуля штрихкода")
	flag.StringVar(&cfg.font, "font", string(labelgen.FontHelvetica), "шрифт подписей: helvetica | go")
	flag.BoolVar(&cfg.download, "download", false, "не сохранять, а вывести готовый PDF в stdout")
	list := flag.Bool("list", false, "показать доступные шаблоны")
	watch := flag.Bool("watch", false, "следить за файлом шаблонов и пересобирать")
	debounce := flag.Duration("debounce", 300*time.Millisecond, "дебаунс перед пересборкой")
	serve := flag.Bool("serve", false, "режим демона (HTTP API)")
	port := flag.Int("port", 8080, "порт HTTP демона")
	outDir := flag.String("outdir", ".", "каталог для файлов, сохраняемых демоном")
	flag.Parse()

	cfg.interactive = term.IsTerminal(int(os.Stdout.Fd()))
	cfg.header = strings.TrimSpace(cfg.header)

	if *list {
		catalog, err := loadCatalog(cfg.templates)
		if err != nil {
			log.Fatalf("💥  шаблоны: %v\n", err)
		}
		for _, name := range catalog.Names() {
			fmt.Println(name)
		}
		return
	}

	if *serve {
		runServer(*port, *outDir, cfg)
		return
	}

	// первая сборка
	if err := render(cfg); err != nil {
		log.Fatalf("💥  ошибка сборки: %v\n", err)
	}
	if cfg.download {
		return
	}
	status(cfg, "💚  готово: "+cfg.out)

	if !*watch {
		return
	}
	if cfg.templates == "" {
		log.Fatalf("watch: нужен -templates")
	}
	if err := watchTemplates(cfg, *debounce); err != nil {
		log.Fatalf("watcher: %v", err)
	}
}

// ---------- общий пайплайн ----------
func loadCatalog(path string) (*labelgen.Catalog, error) {
	if path == "" {
		return labelgen.DefaultCatalog(), nil
	}
	return labelgen.LoadCatalogFile(path)
}

func newGenerator(cfg config, catalog *labelgen.Catalog, logger *log.Logger) (*labelgen.Generator, error) {
	font, err := labelgen.ParseFontChoice(cfg.font)
	if err != nil {
		return nil, err
	}
	return labelgen.New(catalog,
		labelgen.WithDPI(cfg.dpi),
		labelgen.WithScale(cfg.scale),
		labelgen.WithFont(font),
		labelgen.WithLogger(logger),
	)
}

// ---------- CLI рендер ----------
func render(cfg config) error {
	catalog, err := loadCatalog(cfg.templates)
	if err != nil {
		return fmt.Errorf("шаблоны: %w", err)
	}

	logger := log.New(io.Discard, "", 0)
	if cfg.interactive && !cfg.download {
		logger = log.New(os.Stdout, "📄  ", 0)
	}
	gen, err := newGenerator(cfg, catalog, logger)
	if err != nil {
		return err
	}

	doc, err := gen.Compose(cfg.start, cfg.end, cfg.template, cfg.header)
	if err != nil {
		return err
	}

	if cfg.download {
		if _, err := doc.WriteTo(os.Stdout); err != nil {
			return fmt.Errorf("вывод stdout: %w", err)
		}
		return nil
	}
	if err := doc.Save(cfg.out); err != nil {
		return fmt.Errorf("сохранение: %w", err)
	}
	return nil
}

func status(cfg config, msg string) {
	if cfg.interactive {
		fmt.Println(msg)
		return
	}
	log.Println(strings.TrimSpace(strings.TrimLeftFunc(msg, func(r rune) bool { return r > 0x7f })))
}

// ---------- watch ----------
func watchTemplates(cfg config, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = watcher.Close()
	}()

	// редакторы часто пишут через rename, поэтому следим и за каталогом
	for _, p := range dedupe([]string{cfg.templates, filepath.Dir(cfg.templates)}) {
		if err := watcher.Add(p); err != nil {
			log.Printf("warn: не удалось добавить в watch %s: %v\n", p, err)
		}
	}
	target, _ := filepath.Abs(cfg.templates)

	if cfg.interactive {
		fmt.Print("\033[?25l")
		defer fmt.Print("\033[?25h")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	d := newDebouncer(debounce, func() {
		status(cfg, "🔄  пересборка…")
		if err := render(cfg); err != nil {
			status(cfg, fmt.Sprintf("💥  %v", err))
		} else {
			status(cfg, "💚  готово: "+cfg.out)
		}
	})
	defer d.stop()

	status(cfg, "👀  watch-режим (Ctrl+C — выход)")
	for {
		select {
		case ev := <-watcher.Events:
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if n, _ := filepath.Abs(ev.Name); n != target {
				continue
			}
			status(cfg, "📝  изменено: "+filepath.Base(ev.Name)+" → жду дебаунс…")
			d.trigger()
		case err := <-watcher.Errors:
			log.Printf("watch error: %v\n", err)
		case <-sig:
			if cfg.interactive {
				fmt.Print("\r\033[K👋  пока\n")
			}
			return nil
		}
	}
}

// debouncer откладывает fn до паузы в событиях; запуски fn не пересекаются
type debouncer struct {
	delay time.Duration
	fn    func()

	mu    sync.Mutex // таймер
	t     *time.Timer
	runMu sync.Mutex // сам fn
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.t != nil {
		d.t.Stop()
	}
	d.t = time.AfterFunc(d.delay, d.fire)
}

func (d *debouncer) fire() {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	d.fn()
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.t != nil {
		d.t.Stop()
	}
}

// ---------- демон ----------
// maxRequestBytes – предел тела запроса /generate
const maxRequestBytes = 1 << 20

type generateRequest struct {
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Template string `json:"template"`
	Header   string `json:"header,omitempty"`
	Output   string `json:"output,omitempty"`
}

type server struct {
	gen    *labelgen.Generator
	outDir string
	// генерация однопоточная, один запрос за раз
	mu sync.Mutex
}

func newServer(gen *labelgen.Generator, outDir string) http.Handler {
	s := &server{gen: gen, outDir: outDir}
	mux := http.NewServeMux()
	mux.HandleFunc("/templates", s.handleTemplates)
	mux.HandleFunc("/generate", s.handleGenerate)
	return mux
}

func (s *server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method %s not allowed", r.Method)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string][]string{"templates": s.gen.Catalog().Names()})
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method %s not allowed", r.Method)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonErr(w, http.StatusRequestEntityTooLarge, "request body over %d bytes", tooBig.Limit)
			return
		}
		jsonErr(w, http.StatusBadRequest, "invalid json: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.gen.Compose(req.Start, req.End, req.Template, strings.TrimSpace(req.Header))
	if err != nil {
		jsonErr(w, statusFor(err), "%v", err)
		return
	}

	if req.Output != "" {
		path, err := securejoin.SecureJoin(s.outDir, req.Output)
		if err != nil {
			jsonErr(w, http.StatusBadRequest, "output path: %v", err)
			return
		}
		if err := doc.Save(path); err != nil {
			jsonErr(w, http.StatusInternalServerError, "save: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"output": req.Output,
			"pages":  doc.PageCount,
			"labels": doc.LabelCount,
		})
		return
	}

	// отдаём файл напрямую
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="labels.pdf"`)
	if _, err := doc.WriteTo(w); err != nil {
		log.Printf("stream error: %v\n", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, labelgen.ErrInvalidRange),
		errors.Is(err, labelgen.ErrUnknownTemplate),
		errors.Is(err, labelgen.ErrEncoding):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func runServer(port int, outDir string, cfg config) {
	catalog, err := loadCatalog(cfg.templates)
	if err != nil {
		log.Fatalf("шаблоны: %v", err)
	}
	gen, err := newGenerator(cfg, catalog, log.Default())
	if err != nil {
		log.Fatalf("генератор: %v", err)
	}

	log.Printf("🦌  Демон слушает порт %d\n", port)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", port), newServer(gen, outDir)))
}

// ---------- вспомогательные ----------
func jsonErr(w http.ResponseWriter, code int, fmtStr string, a ...any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": fmt.Sprintf(fmtStr, a...)})
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range in {
		if p == "" {
			continue
		}
		abs, _ := filepath.Abs(p)
		if _, ok := seen[abs]; !ok {
			seen[abs] = struct{}{}
			out = append(out, abs)
		}
	}
	return out
}
