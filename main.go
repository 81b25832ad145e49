// MIT License

// Copyright (c) 2018 Akhil Indurti

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// This CLI utility parses a quill source file and runs the output
// generator or dump selected by its command.
//
// Usage:
//   quill [command]
//
// Available Commands:
//   help        Help about any command
//   html        HTML output generator for quill source files
//   tree        Dump the syntax tree of a quill source file
//
// Flags:
//   -h, --help   help for quill
//
// Use "quill [command] --help" for more information about a command.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"akhil.cc/quill/ast"
	"akhil.cc/quill/gen/html"
	"akhil.cc/quill/parser"
	"akhil.cc/quill/syntax"
	"github.com/sanity-io/litter"
	"github.com/spf13/cobra"
)

func prefix(msg string, err error) error {
	return errors.New(msg + err.Error())
}

// flags are the parse options shared by every command.
type flags struct {
	noBlock         bool
	frontMatter     bool
	softBreaks      bool
	ignoreErrors    bool
	noStrikethrough bool
	verbose         bool
}

func (f *flags) logger() *slog.Logger {
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (f *flags) engine(log *slog.Logger) *parser.Engine {
	var opts syntax.Options
	opts.Parser.DisableBlock = f.noBlock
	opts.Parser.FrontMatter = f.frontMatter
	opts.Parser.IgnoreErrors = f.ignoreErrors
	if f.softBreaks {
		opts.Parser.LineBreak = ast.LineBreakSoft
	}
	opts.Delim.DisableTilde = f.noStrikethrough
	e := syntax.Default(opts)
	e.SetLogger(log)
	return e
}

// parse reads the named file, or standard input, and parses it.
func (f *flags) parse(ctx context.Context, log *slog.Logger, args []string) (*parser.File, error) {
	src := os.Stdin
	if len(args) != 0 {
		var err error
		src, err = os.Open(args[0])
		if err != nil {
			return nil, err
		}
	}
	defer src.Close()
	file, err := f.engine(log).Parse(ctx, src)
	if err != nil {
		return nil, err
	}
	for _, err := range file.Errors {
		log.Warn("parse error ignored", "error", err)
	}
	return file, nil
}

// output opens the named output file, or standard output.
func output(name string) (io.WriteCloser, error) {
	if len(name) == 0 {
		return os.Stdout, nil
	}
	return os.Create(name)
}

func main() {
	var f flags
	rootCmd := &cobra.Command{
		Use:   "quill generator",
		Short: "output generation for quill source files",
		Long: `This CLI utility parses a quill source file and runs the output
generator or dump selected by its command.`,
	}
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&f.noBlock, "no-block", false, "parse the whole input as inline text")
	pf.BoolVar(&f.frontMatter, "front-matter", false, "strip a leading YAML front matter block")
	pf.BoolVar(&f.softBreaks, "soft-breaks", false, "render every newline in text as a line break")
	pf.BoolVar(&f.ignoreErrors, "ignore-errors", false, "report plugin failures and keep parsing")
	pf.BoolVar(&f.noStrikethrough, "no-strikethrough", false, "leave ~ runs as text")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "log parser progress and report the word count")

	var outputfile string
	var timeout time.Duration
	prefixHTML := "(HTML) "
	htmlCmd := &cobra.Command{
		Use:   "html [input] [-o output]",
		Short: "HTML output generator for quill source files",
		Long: `This command parses a quill source file and converts it to HTML.
Text is escaped. Emphasis, links and images are resolved into
properly nested tags. Directives are parsed according to the
Bourne shell's word-splitting rules.

If no input file is specified, input is read from
standard input. Similarly, if no output argument is
specified, output is written to standard output.`,
		Args:                  cobra.MaximumNArgs(1),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := f.logger()
			ctx := context.Background()
			if timeout > -1 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			file, err := f.parse(ctx, log, args)
			if err != nil {
				return prefix(prefixHTML, err)
			}
			out, err := output(outputfile)
			if err != nil {
				return prefix(prefixHTML, err)
			}
			defer out.Close()
			g := html.GenContext(ctx, file)
			g.Stdout = out
			g.Stderr = os.Stderr
			if err := g.Run(); err != nil {
				return prefix(prefixHTML, err)
			}
			log.Info("generated html", "words", file.Context.Words, "headings", len(file.Context.TOC))
			if f.verbose {
				fmt.Fprintf(os.Stderr, "%d words\n", file.Context.Words)
			}
			return nil
		},
	}
	htmlCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		if err != nil {
			return prefix(prefixHTML, err)
		}
		return nil
	})
	// pflag includes the argument type when it unquotes its usage.
	// To prevent this behavior we prefix the usage with backquotes ``.
	htmlCmd.Flags().StringVarP(&outputfile, "output", "o", "", "``name of the output file")
	htmlCmd.Flags().DurationVarP(&timeout, "timeout", "t", -1, "``timeout used to halt generator for long-running commands")
	// Set string version of default value to be zero-value to prevent it from being printed by FlagUsages.
	htmlCmd.Flags().Lookup("timeout").DefValue = "0"

	var data bool
	var treeOutput string
	prefixTree := "(tree) "
	treeCmd := &cobra.Command{
		Use:   "tree [input] [-o output]",
		Short: "Dump the syntax tree of a quill source file",
		Long: `This command parses a quill source file and prints its syntax
tree, one node per line, indented by depth. With --data the
data attached to nodes and the front matter are dumped too.`,
		Args:                  cobra.MaximumNArgs(1),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := f.parse(context.Background(), f.logger(), args)
			if err != nil {
				return prefix(prefixTree, err)
			}
			out, err := output(treeOutput)
			if err != nil {
				return prefix(prefixTree, err)
			}
			defer out.Close()
			if err := dumpTree(out, file, data); err != nil {
				return prefix(prefixTree, err)
			}
			return nil
		},
	}
	treeCmd.Flags().BoolVar(&data, "data", false, "also dump node data and front matter")
	treeCmd.Flags().StringVarP(&treeOutput, "output", "o", "", "``name of the output file")

	rootCmd.AddCommand(htmlCmd, treeCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func dumpTree(w io.Writer, file *parser.File, data bool) error {
	t := file.Tree
	if err := ast.Fprint(w, t, t.Root()); err != nil {
		return err
	}
	if !data {
		return nil
	}
	dump := litter.Options{Compact: true, StripPackageNames: true}
	if file.Meta != nil {
		if _, err := fmt.Fprintf(w, "meta %s\n", dump.Sdump(file.Meta)); err != nil {
			return err
		}
	}
	var err error
	t.Walk(t.Root(), func(id ast.ID) bool {
		if d := t.Data(id); d != nil && err == nil {
			_, err = fmt.Fprintf(w, "%d %s %s\n", id, t.Name(id), dump.Sdump(d))
		}
		return err == nil
	})
	return err
}
