package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/cognicore/tagger/internal/docs"
	"github.com/cognicore/tagger/pkg/tagger"
	"github.com/cognicore/tagger/pkg/tagger/config"
	"github.com/cognicore/tagger/pkg/tagger/records"
	"github.com/cognicore/tagger/pkg/tagger/store"
	"github.com/cognicore/tagger/pkg/tagger/store/sqlite"
	"github.com/cognicore/tagger/pkg/tagger/vocab"
)

// stringList collects a repeatable flag
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type options struct {
	configPath string
	dictPaths  []string
	dbPath     string
	boundary   string

	inputPath    string
	vocabularies []string
	stripHTML    bool
	save         bool
	args         []string // doc-id, region, text, vocabulary
}

func main() {
	var dicts stringList
	var (
		configPath = flag.String("config", "", "YAML config listing vocabularies (optional)")
		dbPath     = flag.String("db", "", "SQLite database with imported vocabularies (optional)")
		boundary   = flag.String("boundary", "", "Punctuation stripped from word edges (optional)")
		inputPath  = flag.String("input", "", "JSONL documents for batch mode (optional)")
		vocabs     = flag.String("vocab", "", "Comma-separated vocabularies for batch mode")
		stripHTML  = flag.Bool("html", false, "Strip HTML markup from batch documents")
		save       = flag.Bool("save", false, "Persist the records as a run (requires a database)")
	)
	flag.Var(&dicts, "dict", "Vocabulary file, .dict or .yaml (repeatable)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <doc-id> <region> <text> <vocabulary>\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "       %s [flags] -input docs.jsonl -vocab ChEBI\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *inputPath == "" && flag.NArg() != 4 {
		flag.Usage()
		os.Exit(2)
	}
	if *inputPath != "" && *vocabs == "" {
		log.Fatal("--vocab required with --input")
	}

	err := run(context.Background(), options{
		configPath:   *configPath,
		dictPaths:    dicts,
		dbPath:       *dbPath,
		boundary:     *boundary,
		inputPath:    *inputPath,
		vocabularies: splitList(*vocabs),
		stripHTML:    *stripHTML,
		save:         *save,
		args:         flag.Args(),
	}, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
}

// run annotates, writes the records to w and optionally saves them. The
// store is closed before run returns, on every path.
func run(ctx context.Context, opts options, w io.Writer) error {
	tg, cleanup, err := buildTagger(ctx, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	var recs []records.Record
	if opts.inputPath != "" {
		recs, err = annotateBatch(ctx, tg, opts.inputPath, opts.vocabularies, opts.stripHTML)
		if err != nil {
			return err
		}
	} else {
		if len(opts.args) != 4 {
			return fmt.Errorf("expected 4 arguments, got %d", len(opts.args))
		}
		a := opts.args
		recs = tg.Annotate(a[0], a[1], a[2], a[3])
	}

	if err := records.Write(w, recs); err != nil {
		return err
	}

	if opts.save {
		saved, err := tg.Save(ctx, recs)
		if err != nil {
			return err
		}
		log.Printf("Saved run %s (%d records)", saved.ID, len(saved.Records))
	}
	return nil
}

func annotateBatch(ctx context.Context, tg *tagger.Tagger, path string, vocabularies []string, stripHTML bool) ([]records.Record, error) {
	items, err := docs.LoadFromJSONL(path)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	var out []records.Record
	for i, item := range items {
		recs, err := tg.AnnotateDoc(ctx, tagger.Doc{
			ID:       item.ID,
			Title:    item.Title,
			Abstract: item.Abstract,
		}, tagger.DocOptions{
			Vocabularies: vocabularies,
			StripHTML:    stripHTML,
		})
		if err != nil {
			return nil, fmt.Errorf("annotate %s: %w", item.ID, err)
		}
		out = append(out, recs...)

		if (i+1)%100 == 0 {
			log.Printf("Annotated %d/%d documents", i+1, len(items))
		}
	}
	return out, nil
}

func buildTagger(ctx context.Context, opts options) (*tagger.Tagger, func(), error) {
	loader := config.Loader{
		ConfigPath: opts.configPath,
		DictPaths:  opts.dictPaths,
		Boundary:   opts.boundary,
	}

	components, err := loader.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	dbPath := opts.dbPath
	if dbPath == "" {
		dbPath = components.DBPath
	}

	index := components.Index
	var st store.Store
	if dbPath != "" {
		st, err = sqlite.OpenSQLite(ctx, dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		stored, err := vocab.LoadFromStore(ctx, st, vocab.WithSplitter(components.Tokenizer.Words))
		if err != nil {
			st.Close()
			return nil, nil, fmt.Errorf("load stored vocabularies: %w", err)
		}
		// Vocabulary files take precedence over imported copies.
		for _, name := range index.Names() {
			v, _ := index.Get(name)
			stored.Add(v)
		}
		index = stored
	}

	tg := tagger.New(tagger.Options{
		Index:     index,
		Tokenizer: components.Tokenizer,
		Store:     st,
	})

	cleanup := func() {
		tg.Close()
	}

	return tg, cleanup, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
