package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/jessevdk/go-flags"
	"github.com/karupanerura/expression-calculator/internal/calculator"
	"github.com/karupanerura/expression-calculator/internal/config"
	"github.com/karupanerura/expression-calculator/internal/document"
	"github.com/karupanerura/expression-calculator/internal/expression"
	"github.com/karupanerura/expression-calculator/internal/server"
	"github.com/karupanerura/expression-calculator/internal/types"
	"github.com/mattn/go-isatty"
)

type Option struct {
	Exprs       []string `short:"e" long:"expr" description:"[OPTIONAL] Expression to evaluate (repeatable)" required:"false"`
	File        string   `short:"f" long:"file" description:"[OPTIONAL] JSON/YAML document whose ${...} strings are evaluated" required:"false"`
	Listen      string   `short:"l" long:"listen" description:"[OPTIONAL] Listen host and port to serve the evaluation API" required:"false"`
	Config      string   `short:"c" long:"config" description:"[OPTIONAL] Config file (JSON/YAML)" required:"false"`
	Format      string   `long:"format" description:"[OPTIONAL] Output format" choice:"json" choice:"yaml" choice:"text" required:"false"`
	Concurrency int      `long:"concurrency" description:"[OPTIONAL] Number of expressions evaluated in parallel" required:"false"`
	Debug       bool     `long:"debug" description:"[OPTIONAL] Trace the parser" required:"false"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opt Option
	parser := flags.NewParser(&opt, flags.Default)
	_, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return 0
		} else {
			parser.WriteHelp(stdout)
			return 1
		}
	}

	modes := 0
	for _, set := range []bool{len(opt.Exprs) != 0, opt.File != "", opt.Listen != ""} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		parser.WriteHelp(stdout)
		return 1
	}

	conf, err := loadConfig(&opt)
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}
	if conf.Debug {
		expression.EnableDebugLog()
	}

	// server mode
	if conf.Listen != "" && len(opt.Exprs) == 0 && opt.File == "" {
		err = serveEvaluations(conf.Listen, server.Options{
			Concurrency:  conf.Concurrency,
			HistoryLimit: conf.HistoryLimit,
		})
		if err != nil {
			log.Printf("failed to serve evaluations: %v", err)
			return 1
		}
		return 0
	}

	if opt.File != "" {
		return expandDocument(stdout, stderr, opt.File, conf.Format)
	}

	texts := opt.Exprs
	if len(texts) == 0 {
		texts, err = readLines(stdin)
		if err != nil {
			log.Printf("failed to read expressions: %v", err)
			return 1
		}
	}
	return evaluateExpressions(stdout, stderr, texts, conf)
}

func loadConfig(opt *Option) (*config.Config, error) {
	conf := config.Default()
	if opt.Config != "" {
		var err error
		conf, err = config.Load(opt.Config)
		if err != nil {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
	}

	if opt.Listen != "" {
		conf.Listen = opt.Listen
	}
	if opt.Format != "" {
		conf.Format = config.Format(opt.Format)
	}
	if opt.Concurrency != 0 {
		conf.Concurrency = opt.Concurrency
	}
	if opt.Debug {
		conf.Debug = true
	}
	return conf, conf.Validate()
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := scanner.Text(); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner.Scan: %w", err)
	}
	return lines, nil
}

type evaluationOutput struct {
	Expression string          `json:"expression"`
	AST        expression.Node `json:"ast"`
	ASTText    string          `json:"astText"`
	Value      *float64        `json:"value,omitempty"`
	ValueText  string          `json:"valueText"`
}

func newEvaluationOutput(ret *calculator.Result) *evaluationOutput {
	out := &evaluationOutput{
		Expression: ret.Expression,
		AST:        ret.AST,
		ASTText:    ret.ASTRepresentation,
		ValueText:  strconv.FormatFloat(ret.Value, 'g', -1, 64),
	}
	if !math.IsInf(ret.Value, 0) && !math.IsNaN(ret.Value) {
		v := ret.Value
		out.Value = &v
	}
	return out
}

func evaluateExpressions(stdout, stderr io.Writer, texts []string, conf *config.Config) int {
	status := 0
	for _, outcome := range calculator.EvaluateBatch(context.Background(), texts, conf.Concurrency) {
		if outcome.Err != nil {
			status = 1
			dumpError(stderr, conf.Format, texts[outcome.Index], outcome.Err)
			continue
		}

		out := newEvaluationOutput(outcome.Result)
		if conf.Format == config.TextFormat {
			if _, err := fmt.Fprintf(stdout, "%s = %s\n", out.ASTText, out.ValueText); err != nil {
				log.Printf("failed to dump evaluation result: %v", err)
			}
			continue
		}
		if err := dump(stdout, conf.Format, out); err != nil {
			log.Printf("failed to dump evaluation result: %v", err)
		}
	}
	return status
}

func expandDocument(stdout, stderr io.Writer, filePath string, format config.Format) int {
	doc, err := document.Load(filePath)
	if err != nil {
		log.Printf("failed to load document: %v", err)
		return 1
	}

	ret, err := document.Expand(doc)
	if err != nil {
		dumpError(stderr, format, filePath, err)
		return 1
	}

	if format == config.TextFormat {
		format = config.JSONFormat
	}
	if err = dump(stdout, format, ret); err != nil {
		log.Printf("failed to dump document: %v", err)
		return 1
	}
	return 0
}

func dumpError(w io.Writer, format config.Format, source string, err error) {
	var exception types.Exception
	if format == config.TextFormat || !errors.As(err, &exception) {
		if _, err = fmt.Fprintf(w, "%s: %v\n", source, err); err != nil {
			log.Printf("failed to dump error: %v", err)
		}
		return
	}

	if _, err = fmt.Fprintln(w, err.Error()); err != nil {
		log.Printf("failed to dump error: %v", err)
	}
	if err = dump(w, format, exception.Exception()); err != nil {
		log.Printf("failed to dump error as %s: %v", format, err)
	}
}

func serveEvaluations(listen string, opts server.Options) error {
	srv := http.Server{
		Handler: server.NewHTTPHandler(opts),
		Addr:    listen,
	}

	log.Printf("Listen HTTP on %s", listen)
	if err := srv.ListenAndServe(); errors.Is(err, http.ErrServerClosed) {
		return nil
	} else if err != nil {
		return err
	}
	return nil
}

func dump(w io.Writer, format config.Format, v any) error {
	if format == config.YAMLFormat {
		return dumpYAML(w, v)
	}
	return dumpJSON(w, v)
}

func dumpJSON(w io.Writer, v any) error {
	opts := []json.EncodeOptionFunc{json.DisableHTMLEscape()}
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		if isatty.IsTerminal(f.Fd()) {
			opts = append(opts, json.Colorize(json.DefaultColorScheme))
		}
	}

	b, err := json.MarshalIndentWithOption(v, "", "\t", opts...)
	if err != nil {
		return fmt.Errorf("json.MarshalIndentWithOption: %w", err)
	}

	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	return nil
}

func dumpYAML(w io.Writer, v any) error {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	b, err := yaml.JSONToYAML(jsonBytes)
	if err != nil {
		return fmt.Errorf("yaml.JSONToYAML: %w", err)
	}

	if _, err = io.WriteString(w, "---\n"); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	return nil
}
