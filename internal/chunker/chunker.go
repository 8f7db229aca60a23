package chunker

import (
	"strings"

	"go.uber.org/zap"

	"github.com/hotelchat/backend/internal/metrics"
	"github.com/hotelchat/backend/internal/storage/models"
	"github.com/hotelchat/backend/pkg/utils"
)

const (
	DefaultTargetSize = 1000
	DefaultOverlap    = 150
	DefaultMinSize    = 100
)

// Chunker splits extracted text into bounded, overlap-aware segments ready
// for embedding. Windows grow sentence by sentence up to the target size, so
// a sentence is only ever cut when it alone exceeds the target. Chunk IDs
// are a pure function of (source ref, position): re-chunking identical
// content produces identical IDs.
type Chunker struct {
	targetSize int
	overlap    int
	minSize    int
	logger     *zap.Logger
}

func New(targetSize, overlap, minSize int, logger *zap.Logger) *Chunker {
	if targetSize <= 0 {
		targetSize = DefaultTargetSize
	}
	if overlap < 0 || overlap >= targetSize {
		overlap = targetSize / 4
	}
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chunker{
		targetSize: targetSize,
		overlap:    overlap,
		minSize:    minSize,
		logger:     logger,
	}
}

// ChunkSite converts every page of a crawl result into knowledge chunks.
// Page order and within-page order are preserved.
func (c *Chunker) ChunkSite(site *models.SiteResult) []models.KnowledgeChunk {
	var chunks []models.KnowledgeChunk

	for _, page := range site.Pages {
		position := 0
		for _, piece := range c.split(page.Content) {
			chunks = append(chunks, models.KnowledgeChunk{
				ChunkID:          utils.ChunkID(page.URL, position),
				Text:             piece.text,
				SourceType:       models.SourceTypeWeb,
				SourceRef:        page.URL,
				PageTypeOrOrigin: string(page.PageType),
				Position:         position,
				OverlapWithPrev:  piece.overlap,
			})
			position++
		}
	}

	metrics.ChunksProduced.WithLabelValues(string(models.SourceTypeWeb)).Add(float64(len(chunks)))
	c.logger.Debug("Site chunked",
		zap.String("seed_url", site.SeedURL),
		zap.Int("pages", len(site.Pages)),
		zap.Int("chunks", len(chunks)),
	)

	return chunks
}

// ChunkDocument converts an ingested document into knowledge chunks. Empty
// segments (image-only PDF pages) contribute nothing; positions run
// continuously across the whole document so IDs stay unique per file.
func (c *Chunker) ChunkDocument(doc *models.DocumentRecord) []models.KnowledgeChunk {
	var chunks []models.KnowledgeChunk

	position := 0
	for _, segment := range doc.Segments {
		for _, piece := range c.split(segment.Text) {
			chunks = append(chunks, models.KnowledgeChunk{
				ChunkID:          utils.ChunkID(doc.SourceName, position),
				Text:             piece.text,
				SourceType:       models.SourceTypeDocument,
				SourceRef:        doc.SourceName,
				PageTypeOrOrigin: segment.Label,
				Position:         position,
				OverlapWithPrev:  piece.overlap,
			})
			position++
		}
	}

	metrics.ChunksProduced.WithLabelValues(string(models.SourceTypeDocument)).Add(float64(len(chunks)))
	c.logger.Debug("Document chunked",
		zap.String("source", doc.SourceName),
		zap.Int("segments", len(doc.Segments)),
		zap.Int("chunks", len(chunks)),
	)

	return chunks
}

type piece struct {
	text    string
	overlap int
}

// split windows one text unit into pieces of at most targetSize characters,
// carrying up to overlap characters of trailing sentences into the next
// window. Every piece except the last holds at least minSize characters.
// Whitespace-only input yields no pieces.
func (c *Chunker) split(text string) []piece {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var parts []string
	for _, sentence := range splitSentences(text) {
		if len(sentence) > c.targetSize {
			parts = append(parts, hardSplit(sentence, c.targetSize)...)
		} else {
			parts = append(parts, sentence)
		}
	}

	var pieces []piece
	var window []string
	windowLen := 0
	carried := 0 // chars of window carried over from the previous piece
	fresh := 0   // sentences appended since the last emit

	for _, part := range parts {
		extra := len(part)
		if windowLen > 0 {
			extra++ // joining space
		}

		if windowLen > 0 && windowLen+extra > c.targetSize {
			// A window still below the minimum cannot stand alone. Top it
			// up to the target from the head of the incoming sentence; the
			// remainder flows into the next window.
			if windowLen < c.minSize {
				head, rest := cutRunes(part, c.targetSize-windowLen-1)
				if head != "" {
					window = append(window, head)
					windowLen += 1 + len(head)
					part = rest
				}
			}

			pieces = append(pieces, piece{
				text:    strings.Join(window, " "),
				overlap: carried,
			})

			window = overlapTail(window, c.overlap)
			windowLen = joinedLen(window)
			carried = windowLen
			fresh = 0

			extra = len(part)
			if windowLen > 0 {
				extra++
			}

			// a near-target sentence leaves no room for carried context
			if windowLen+extra > c.targetSize {
				window = nil
				windowLen = 0
				carried = 0
				extra = len(part)
			}
		}

		window = append(window, part)
		windowLen += extra
		fresh++
	}

	// The trailing window is only emitted when it holds new material; a
	// window made purely of carried overlap is already covered.
	if fresh > 0 && windowLen > 0 {
		pieces = append(pieces, piece{
			text:    strings.Join(window, " "),
			overlap: carried,
		})
	}

	c.checkBounds(pieces)
	return pieces
}

// checkBounds flags pieces outside the configured size bounds. The final
// trailing piece of a unit is allowed to run short; anything else out of
// bounds is a chunking defect worth surfacing, not a runtime condition.
func (c *Chunker) checkBounds(pieces []piece) {
	for i, p := range pieces {
		if len(p.text) > c.targetSize {
			c.logger.Warn("Chunk exceeds target size",
				zap.Int("position", i),
				zap.Int("size", len(p.text)),
				zap.Int("target", c.targetSize),
			)
		}
		if i < len(pieces)-1 && len(p.text) < c.minSize {
			c.logger.Warn("Chunk below minimum size",
				zap.Int("position", i),
				zap.Int("size", len(p.text)),
				zap.Int("min", c.minSize),
			)
		}
	}
}

// overlapTail returns the trailing sentences of window whose joined length
// stays within the overlap budget.
func overlapTail(window []string, overlap int) []string {
	if overlap <= 0 {
		return nil
	}

	total := 0
	start := len(window)
	for i := len(window) - 1; i >= 0; i-- {
		extra := len(window[i])
		if total > 0 {
			extra++
		}
		if total+extra > overlap {
			break
		}
		total += extra
		start = i
	}

	tail := make([]string, len(window)-start)
	copy(tail, window[start:])
	return tail
}

func joinedLen(parts []string) int {
	if len(parts) == 0 {
		return 0
	}
	n := len(parts) - 1
	for _, p := range parts {
		n += len(p)
	}
	return n
}

// cutRunes splits s at the largest rune boundary whose head fits in n bytes.
func cutRunes(s string, n int) (string, string) {
	if n <= 0 {
		return "", s
	}
	if len(s) <= n {
		return s, ""
	}

	cut := 0
	for i := range s {
		if i > n {
			break
		}
		cut = i
	}
	return s[:cut], s[cut:]
}

// hardSplit cuts an oversized sentence into rune-safe slices of at most
// size bytes. Last resort only: callers ensure a boundary split was not
// possible.
func hardSplit(sentence string, size int) []string {
	var out []string
	var sb strings.Builder

	for _, r := range sentence {
		if sb.Len()+len(string(r)) > size && sb.Len() > 0 {
			out = append(out, sb.String())
			sb.Reset()
		}
		sb.WriteRune(r)
	}
	if sb.Len() > 0 {
		out = append(out, sb.String())
	}

	return out
}
