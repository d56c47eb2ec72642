package pngme

import (
	"encoding/hex"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/opencontainers/go-digest"
	"github.com/zeebo/blake3"
)

// Summary describes a parsed PNG file.
type Summary struct {
	Path   string
	Size   int64
	Digest digest.Digest // sha256 of the file bytes
	Blake3 string        // hex BLAKE3-256 of the file bytes
	Chunks []ChunkSummary
}

// ChunkSummary describes one chunk of a Summary.
type ChunkSummary struct {
	Index      int
	Offset     int64 // byte offset of the length field
	Type       string
	Length     uint32
	CRC        uint32
	Critical   bool
	Public     bool
	SafeToCopy bool
	Valid      bool
}

// Summarize builds a Summary for png, whose encoded form is data.
func Summarize(path string, data []byte, png *Png) *Summary {
	b3 := blake3.Sum256(data)
	s := &Summary{
		Path:   path,
		Size:   int64(len(data)),
		Digest: digest.FromBytes(data),
		Blake3: hex.EncodeToString(b3[:]),
		Chunks: make([]ChunkSummary, 0, len(png.chunks)),
	}

	offset := int64(len(Signature))
	for i, c := range png.chunks {
		s.Chunks = append(s.Chunks, ChunkSummary{
			Index:      i,
			Offset:     offset,
			Type:       c.chunkType.String(),
			Length:     c.Length(),
			CRC:        c.CRC(),
			Critical:   c.chunkType.IsCritical(),
			Public:     c.chunkType.IsPublic(),
			SafeToCopy: c.chunkType.IsSafeToCopy(),
			Valid:      c.chunkType.IsValid(),
		})
		offset += int64(ChunkOverhead) + int64(len(c.data))
	}
	return s
}

// Flags renders the type properties as a compact 4-letter mask:
// C/a critical, P/p public, S/u safe-to-copy, then V/! validity.
func (c ChunkSummary) Flags() string {
	flag := func(on bool, yes, no byte) byte {
		if on {
			return yes
		}
		return no
	}
	return string([]byte{
		flag(c.Critical, 'C', 'a'),
		flag(c.Public, 'P', 'p'),
		flag(c.SafeToCopy, 'S', 'u'),
		flag(c.Valid, 'V', '!'),
	})
}

// Render writes a human-readable table of the summary.
func (s *Summary) Render(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s: %s, %d chunks\n  digest: %s\n  blake3: %s\n",
		s.Path, humanize.IBytes(uint64(s.Size)), len(s.Chunks), s.Digest, s.Blake3); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tOFFSET\tTYPE\tLENGTH\tCRC\tFLAGS")
	for _, c := range s.Chunks {
		fmt.Fprintf(tw, "  %d\t%d\t%s\t%s\t%08x\t%s\n",
			c.Index, c.Offset, c.Type, humanize.IBytes(uint64(c.Length)), c.CRC, c.Flags())
	}
	return tw.Flush()
}
