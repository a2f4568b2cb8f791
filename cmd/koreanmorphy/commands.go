package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/gonuts/commander"
	"github.com/rs/zerolog/log"

	"github.com/steosofficial/koreanmorphy/analyzer"
	"github.com/steosofficial/koreanmorphy/config"
	"github.com/steosofficial/koreanmorphy/model"
	"github.com/steosofficial/koreanmorphy/webapi"
)

func setupCLILogging(level string) {
	logging.SetupLogging("", logging.LogLevel(level))
}

// loadAnalyzer loads a model with its optional dictionaries. The caller
// closes the returned Resources.
func loadAnalyzer(modelPath, userDic, fwdDic string) (*analyzer.Komoran, *model.Resources, error) {
	res, err := model.Load(modelPath)
	if err != nil {
		return nil, nil, err
	}
	k := analyzer.New(res)
	if userDic != "" {
		if err := k.LoadUserDic(userDic); err != nil {
			res.Close()
			return nil, nil, err
		}
	}
	if fwdDic != "" {
		if err := k.LoadFwdDic(fwdDic); err != nil {
			res.Close()
			return nil, nil, err
		}
	}
	return k, res, nil
}

// inputLines returns args as one text, or the lines of in when there are
// no args.
func inputLines(args []string, in io.Reader) ([]string, error) {
	if len(args) > 0 {
		return []string{strings.Join(args, " ")}, nil
	}
	var lines []string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return lines, nil
}

// --- ANALYZE ---

type analyzeOpts struct {
	model, userDic, fwdDic string
	spacing, asJSON        bool
	logLevel               string
}

func runAnalyze(opts *analyzeOpts, args []string, in io.Reader, out io.Writer) error {
	setupCLILogging(opts.logLevel)
	k, res, err := loadAnalyzer(opts.model, opts.userDic, opts.fwdDic)
	if err != nil {
		return err
	}
	defer res.Close()

	lines, err := inputLines(args, in)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	defer w.Flush()
	for _, line := range lines {
		var result analyzer.Result
		if opts.spacing {
			result = k.AnalyzeWithSpacing(line)

		} else if result, err = k.Analyze(line); err != nil {
			return fmt.Errorf("failed to analyze %q: %w", line, err)
		}

		if opts.asJSON {
			data, err := sonic.Marshal(result)
			if err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
			w.Write(data)
			w.WriteByte('\n')
			continue
		}
		fmt.Fprintln(w, result.PlainText())
	}
	return nil
}

func analyzeCmd() *commander.Command {
	opts := new(analyzeOpts)
	cmd := &commander.Command{
		Run: func(cmd *commander.Command, args []string) error {
			return runAnalyze(opts, args, os.Stdin, os.Stdout)
		},
		UsageLine: "analyze -model <model> [options] [text]",
		Short:     "analyze text given as arguments or line by line on stdin",
		Long: `
analyze text given as arguments or line by line on stdin

	$ ./koreanmorphy analyze -model <model dir or file> [-user <file>] [-fwd <file>] [-spacing] [-json] [text]

The model defaults to $` + model.EnvModelPath + `.
`,
		Flag: *flag.NewFlagSet("analyze", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&opts.model, "model", "", "Model directory or compiled model file")
	cmd.Flag.StringVar(&opts.userDic, "user", "", "User dictionary file")
	cmd.Flag.StringVar(&opts.fwdDic, "fwd", "", "Forward (pre-analyzed) dictionary file")
	cmd.Flag.BoolVar(&opts.spacing, "spacing", false, "Analyze each line as one sentence")
	cmd.Flag.BoolVar(&opts.asJSON, "json", false, "Output JSON, one result per line")
	cmd.Flag.StringVar(&opts.logLevel, "log-level", "warn", "Log level")
	return cmd
}

// --- COMPILE ---

type compileOpts struct {
	src, out string
}

func runCompile(opts *compileOpts) error {
	if opts.src == "" || opts.out == "" {
		return fmt.Errorf("both -src and -out are required")
	}
	res, err := model.LoadSources(opts.src)
	if err != nil {
		return err
	}
	if err := model.Compile(res, opts.out); err != nil {
		return err
	}
	log.Info().Str("src", opts.src).Str("out", opts.out).Msg("model compiled")
	return nil
}

func compileCmd() *commander.Command {
	opts := new(compileOpts)
	cmd := &commander.Command{
		Run: func(cmd *commander.Command, args []string) error {
			setupCLILogging("info")
			return runCompile(opts)
		},
		UsageLine: "compile -src <dir> -out <file>",
		Short:     "compile a text model directory into a binary model",
		Long: `
compile a text model directory into a binary model

	$ ./koreanmorphy compile -src <model dir> -out <model file>

The directory holds ` + model.ObservationFile + `, ` + model.IrregularFile + ` and optionally ` + model.TransitionFile + `.
`,
		Flag: *flag.NewFlagSet("compile", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&opts.src, "src", "", "Text model directory")
	cmd.Flag.StringVar(&opts.out, "out", "", "Output model file")
	return cmd
}

// --- SERVE ---

func runServe(confPath string) error {
	conf, err := config.LoadConfig(confPath)
	if err != nil {
		return err
	}
	conf.SetupLogging()
	if err := config.ValidateAndDefaults(conf); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log.Info().Str("config", conf.GetSourcePath()).Msg("configuration loaded")
	return webapi.Run(conf)
}

func serveCmd() *commander.Command {
	var confPath string
	cmd := &commander.Command{
		Run: func(cmd *commander.Command, args []string) error {
			return runServe(confPath)
		},
		UsageLine: "serve -config <file>",
		Short:     "run the HTTP API server",
		Flag:      *flag.NewFlagSet("serve", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&confPath, "config", "", "YAML configuration file")
	return cmd
}

// --- DIFF ---

type diffOpts struct {
	model, other string
}

func runDiff(opts *diffOpts, args []string, in io.Reader, out io.Writer) error {
	setupCLILogging("warn")
	src, srcRes, err := loadAnalyzer(opts.model, "", "")
	if err != nil {
		return err
	}
	defer srcRes.Close()
	dest, destRes, err := loadAnalyzer(opts.other, "", "")
	if err != nil {
		return err
	}
	defer destRes.Close()

	lines, err := inputLines(args, in)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	defer w.Flush()
	for _, line := range lines {
		a, err := src.Analyze(line)
		if err != nil {
			return fmt.Errorf("failed to analyze %q: %w", line, err)
		}
		b, err := dest.Analyze(line)
		if err != nil {
			return fmt.Errorf("failed to analyze %q: %w", line, err)
		}
		for _, op := range webapi.DiffAnalyses(a.PlainText(), b.PlainText()) {
			switch op.Op {
			case "equal":
				fmt.Fprintf(w, "  %s\n", strings.Join(op.Src, " "))
			default:
				if len(op.Src) > 0 {
					fmt.Fprintf(w, "- %s\n", strings.Join(op.Src, " "))
				}
				if len(op.Dest) > 0 {
					fmt.Fprintf(w, "+ %s\n", strings.Join(op.Dest, " "))
				}
			}
		}
	}
	return nil
}

func diffCmd() *commander.Command {
	opts := new(diffOpts)
	cmd := &commander.Command{
		Run: func(cmd *commander.Command, args []string) error {
			return runDiff(opts, args, os.Stdin, os.Stdout)
		},
		UsageLine: "diff -model <model> -other <model> [text]",
		Short:     "compare analyses of two models",
		Flag:      *flag.NewFlagSet("diff", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&opts.model, "model", "", "First model")
	cmd.Flag.StringVar(&opts.other, "other", "", "Second model")
	return cmd
}
