package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"lex-retriever/internal/domain"
)

const passageColumns = `id, document_id, document_number, corpus, title, tags, body,
	language, document_type, abolished, amendment_count, decree_count, published_at`

// PassageRepository serves one corpus from the shared passages table. It
// implements the reader, trigram-index and embedding-sampler contracts; the
// full-text contract has a Postgres implementation here and a Meilisearch
// alternative in the meili adapter.
type PassageRepository struct {
	pool   *pgxpool.Pool
	corpus domain.CorpusID
}

// NewPassageRepository creates a corpus-scoped repository.
func NewPassageRepository(pool *pgxpool.Pool, corpus domain.CorpusID) *PassageRepository {
	return &PassageRepository{pool: pool, corpus: corpus}
}

// GetByID fetches a single passage.
func (r *PassageRepository) GetByID(ctx context.Context, id string) (*domain.PassageRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM passages WHERE id = $1 AND corpus = $2`, passageColumns)
	row := r.pool.QueryRow(ctx, query, id, string(r.corpus))
	rec, err := scanPassage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("passage %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get passage %s: %w", id, err)
	}
	return &rec, nil
}

// FetchByIDs fetches a batch of passages. Missing ids are skipped silently;
// index candidates may point at rows deleted since indexing.
func (r *PassageRepository) FetchByIDs(ctx context.Context, ids []string) ([]domain.PassageRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM passages WHERE id = ANY($1) AND corpus = $2`, passageColumns)
	rows, err := r.pool.Query(ctx, query, ids, string(r.corpus))
	if err != nil {
		return nil, fmt.Errorf("fetch passages by ids: %w", err)
	}
	defer rows.Close()
	return collectPassages(rows)
}

// FetchByDocumentID returns the leading passages of a parent document in
// position order.
func (r *PassageRepository) FetchByDocumentID(ctx context.Context, documentID string, limit int) ([]domain.PassageRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM passages
		WHERE document_id = $1 AND corpus = $2
		ORDER BY position ASC
		LIMIT $3`, passageColumns)
	rows, err := r.pool.Query(ctx, query, documentID, string(r.corpus), limit)
	if err != nil {
		return nil, fmt.Errorf("fetch passages for document %s: %w", documentID, err)
	}
	defer rows.Close()
	return collectPassages(rows)
}

// FindByDocumentNumber resolves an exact document identifier.
func (r *PassageRepository) FindByDocumentNumber(ctx context.Context, number string) ([]domain.PassageRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM passages
		WHERE document_number = $1 AND corpus = $2
		ORDER BY position ASC`, passageColumns)
	rows, err := r.pool.Query(ctx, query, number, string(r.corpus))
	if err != nil {
		return nil, fmt.Errorf("find by document number %s: %w", number, err)
	}
	defer rows.Close()
	return collectPassages(rows)
}

// ScanLiteral matches term as a case-insensitive substring against title,
// tags and body text.
func (r *PassageRepository) ScanLiteral(ctx context.Context, term string, limit int) ([]domain.PassageRecord, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	query := fmt.Sprintf(`SELECT %s FROM passages
		WHERE corpus = $1
		  AND (lower(title) LIKE $2 OR lower(tags) LIKE $2 OR lower(body) LIKE $2)
		LIMIT $3`, passageColumns)
	rows, err := r.pool.Query(ctx, query, string(r.corpus), pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("literal scan: %w", err)
	}
	defer rows.Close()
	return collectPassages(rows)
}

// Available reports whether the trigram table has rows for this corpus.
func (r *PassageRepository) Available(ctx context.Context) bool {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM passage_trigrams WHERE corpus = $1)`,
		string(r.corpus)).Scan(&exists)
	return err == nil && exists
}

// CandidateIDs returns ids of passages whose trigram rows cover every
// 3-gram of term. The result is a superset of literal matches.
func (r *PassageRepository) CandidateIDs(ctx context.Context, term string) ([]string, error) {
	grams := trigrams(strings.ToLower(term))
	if len(grams) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT passage_id FROM passage_trigrams
		 WHERE corpus = $1 AND ngram = ANY($2)
		 GROUP BY passage_id
		 HAVING COUNT(DISTINCT ngram) = $3`,
		string(r.corpus), grams, len(grams))
	if err != nil {
		return nil, fmt.Errorf("trigram candidates: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan trigram candidate: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SampleEmbeddings returns a bounded random sample of embedding rows for
// the fallback exact scan.
func (r *PassageRepository) SampleEmbeddings(ctx context.Context, limit int) ([]domain.EmbeddedPassage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, language, embedding FROM passages
		 WHERE corpus = $1 AND embedding IS NOT NULL
		 ORDER BY random()
		 LIMIT $2`,
		string(r.corpus), limit)
	if err != nil {
		return nil, fmt.Errorf("sample embeddings: %w", err)
	}
	defer rows.Close()

	var sample []domain.EmbeddedPassage
	for rows.Next() {
		var (
			ep  domain.EmbeddedPassage
			vec pgvector.Vector
		)
		if err := rows.Scan(&ep.PassageID, &ep.Language, &vec); err != nil {
			return nil, fmt.Errorf("scan embedding row: %w", err)
		}
		ep.Embedding = vec.Slice()
		sample = append(sample, ep)
	}
	return sample, rows.Err()
}

// FullTextRepository is the Postgres tsvector implementation of the
// full-text contract, sharing the pool with the passage repository.
type FullTextRepository struct {
	pool   *pgxpool.Pool
	corpus domain.CorpusID
}

// NewFullTextRepository creates a corpus-scoped full-text searcher.
func NewFullTextRepository(pool *pgxpool.Pool, corpus domain.CorpusID) *FullTextRepository {
	return &FullTextRepository{pool: pool, corpus: corpus}
}

// Available reports whether the search vector column is populated for this
// corpus.
func (r *FullTextRepository) Available(ctx context.Context) bool {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM passages WHERE corpus = $1 AND search_vector IS NOT NULL)`,
		string(r.corpus)).Scan(&exists)
	return err == nil && exists
}

// SearchPrefixGroups runs one AND-of-OR-groups prefix query against the
// tsvector column.
func (r *FullTextRepository) SearchPrefixGroups(ctx context.Context, groups [][]string, limit int) ([]string, error) {
	tsquery := buildPrefixQuery(groups)
	if tsquery == "" {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM passages
		 WHERE corpus = $1 AND search_vector @@ to_tsquery('simple', $2)
		 LIMIT $3`,
		string(r.corpus), tsquery, limit)
	if err != nil {
		return nil, fmt.Errorf("fulltext prefix search: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan fulltext hit: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// buildPrefixQuery renders groups as (a:* | b:*) & (c:*). Terms with
// tsquery metacharacters are dropped rather than quoted; they cannot occur
// in tokenizer output.
func buildPrefixQuery(groups [][]string) string {
	var andParts []string
	for _, group := range groups {
		var orParts []string
		for _, variant := range group {
			if variant == "" || strings.ContainsAny(variant, "&|!():*'") {
				continue
			}
			orParts = append(orParts, variant+":*")
		}
		if len(orParts) == 0 {
			continue
		}
		andParts = append(andParts, "("+strings.Join(orParts, " | ")+")")
	}
	return strings.Join(andParts, " & ")
}

func scanPassage(row pgx.Row) (domain.PassageRecord, error) {
	var rec domain.PassageRecord
	err := row.Scan(
		&rec.ID, &rec.DocumentID, &rec.DocumentNumber, &rec.Corpus,
		&rec.Title, &rec.Tags, &rec.Text,
		&rec.Language, &rec.DocumentType, &rec.Abolished,
		&rec.AmendmentCount, &rec.DecreeCount, &rec.PublishedAt,
	)
	return rec, err
}

func collectPassages(rows pgx.Rows) ([]domain.PassageRecord, error) {
	var records []domain.PassageRecord
	for rows.Next() {
		rec, err := scanPassage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan passage row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}

// trigrams returns the distinct 3-character shingles of term, in order of
// first occurrence.
func trigrams(term string) []string {
	runes := []rune(term)
	if len(runes) < 3 {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for i := 0; i+3 <= len(runes); i++ {
		g := string(runes[i : i+3])
		if seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}
