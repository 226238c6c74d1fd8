package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lex-retriever/internal/di"
	"lex-retriever/internal/domain"
	"lex-retriever/internal/infra"
	"lex-retriever/internal/infra/config"
	"lex-retriever/internal/infra/logger"
	"lex-retriever/internal/usecase/retrieval"
)

var (
	version = "dev"

	// Ask command flags
	language       string
	conversationID string
	limit          int
	sameLangOnly   bool
	sinceDate      string
	docTypes       []string

	// Phrase command flags
	phraseCorpus string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "retriever",
	Short:   "Hybrid retrieval over Belgian legal corpora",
	Version: version,
}

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Retrieve ranked passages for a legal question",
	Long: `Retrieve ranked passages for a legal question across the legislation,
caselaw, parliamentary and tax corpora.

Examples:
  # Dutch question across all corpora
  retriever ask "wat is de opzegtermijn bij ontslag"

  # French question, only passages in the question's language
  retriever ask --lang fr --same-language "délai de préavis licenciement"

  # Follow-up within a conversation
  retriever ask --conversation 7c9e4a "en voor arbeiders?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

var phraseCmd = &cobra.Command{
	Use:   "phrase [text]",
	Short: "Find passages containing an exact phrase",
	Args:  cobra.ExactArgs(1),
	RunE:  runPhrase,
}

func init() {
	askCmd.Flags().StringVar(&language, "lang", "nl", "query language (nl or fr)")
	askCmd.Flags().StringVar(&conversationID, "conversation", "", "conversation id for follow-up expansion")
	askCmd.Flags().IntVar(&limit, "limit", 0, "per-corpus result limit (0 = configured default)")
	askCmd.Flags().BoolVar(&sameLangOnly, "same-language", false, "only passages in the query language")
	askCmd.Flags().StringVar(&sinceDate, "since", "", "only documents published on or after this date (YYYY-MM-DD)")
	askCmd.Flags().StringSliceVar(&docTypes, "doc-type", nil, "restrict to document types (wet, decreet, arrest, ...)")

	phraseCmd.Flags().StringVar(&phraseCorpus, "corpus", string(domain.CorpusLegislation), "corpus to search")
	phraseCmd.Flags().StringVar(&language, "lang", "nl", "query language (nl or fr)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(phraseCmd)
}

func bootstrap(ctx context.Context) (*di.ApplicationComponents, func(), error) {
	cfg := config.Load()
	log := logger.NewWithOTel(cfg.OTelEnabled)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	pool, err := infra.NewPostgresDB(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	components := di.NewApplicationComponents(cfg, pool, log)
	return components, pool.Close, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	components, closer, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer closer()

	filters := domain.DefaultFilters()
	if sameLangOnly {
		filters.IncludeDutch = domain.Language(language) == domain.LanguageDutch
		filters.IncludeFrench = domain.Language(language) == domain.LanguageFrench
	}
	if sinceDate != "" {
		t, err := time.Parse("2006-01-02", sinceDate)
		if err != nil {
			return fmt.Errorf("invalid --since date: %w", err)
		}
		filters.PublishedFrom = &t
	}
	filters.DocumentTypes = docTypes

	result, err := components.RetrieveUsecase.Execute(ctx, domain.RetrievalRequest{
		Query:          args[0],
		Language:       domain.Language(language),
		ConversationID: conversationID,
		PerCorpusLimit: limit,
		Filters:        filters,
	})
	if err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}

	assembled := retrieval.Assemble(result, limit)
	if assembled.NoInformationFound {
		fmt.Println("No relevant passages found in any corpus.")
		printDiagnostics(result.Diagnostics)
		return nil
	}

	for i, block := range assembled.Blocks {
		fmt.Printf("--- [%d] %s (%s)\n", i+1, block.Title, block.Provenance)
		fmt.Println(block.Text)
	}
	fmt.Println("\nCitations:")
	for _, c := range assembled.Citations {
		fmt.Printf("  %.3f  %s  %s\n", c.Similarity, c.Title, c.URLFragment)
	}
	printDiagnostics(result.Diagnostics)
	return nil
}

func runPhrase(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	components, closer, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer closer()

	corpus := domain.CorpusID(phraseCorpus)
	for _, p := range components.Pipelines {
		if p.Corpus != corpus {
			continue
		}
		outcome, err := p.Lexical.FindExactPhrase(ctx, args[0])
		if err != nil {
			return fmt.Errorf("phrase search: %w", err)
		}
		if len(outcome.Records) == 0 {
			fmt.Println("No passages contain that phrase.")
			return nil
		}
		for i, rec := range outcome.Records {
			fmt.Printf("--- [%d] %s (%s)\n", i+1, rec.Title, rec.DocumentNumber)
			fmt.Println(rec.Text)
		}
		return nil
	}
	return fmt.Errorf("unknown corpus %q", phraseCorpus)
}

func printDiagnostics(diags []domain.SourceDiagnostics) {
	fmt.Println("\nPer-corpus diagnostics:")
	for _, d := range diags {
		line := fmt.Sprintf("  %-14s strategy=%-10s candidates=%-3d latency=%s",
			d.Corpus, orDash(d.Strategy), d.CandidateCount, d.Latency.Round(time.Millisecond))
		if d.FallbackUsed {
			line += " fallback=sampled-scan"
		}
		if d.TimedOut {
			line += " TIMED-OUT"
		}
		if d.Error != "" {
			line += " error=" + d.Error
		}
		fmt.Println(line)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
