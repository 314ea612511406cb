package bytecode

import (
	"bytes"
	"fmt"
)

// Version is the program container format version. It is written into
// the header and must match exactly on decode.
const Version = "0.1.0"

const (
	markerProgram    = "BLUSHPROGRAM\n"
	markerProgStart  = "PROGSTART\n"
	markerProgEnd    = "\nPROGEND"
	markerScopeStart = "\nSCOPESTART\n"
)

// Open opens every chunk in the program for execution.
func (p *Program) Open() []OpenChunk {
	chunks := make([]OpenChunk, len(p.Chunks))
	for i, s := range p.Chunks {
		chunks[i] = s.Open()
	}
	return chunks
}

// Encode serializes the program container:
//
//	BLUSHPROGRAM\n<version>\n
//	<count:u8> PROGSTART\n
//	count x (<lenB:u8> <lenC:u8> <bytecode:255> <constants:255>)
//	\nPROGEND \nSCOPESTART\n <scope>
func (p *Program) Encode() ([]byte, error) {
	if len(p.Chunks) > 255 {
		return nil, fmt.Errorf("encode program: %d chunks exceed the count byte", len(p.Chunks))
	}

	var buf bytes.Buffer
	buf.WriteString(markerProgram)
	buf.WriteString(Version)
	buf.WriteByte('\n')
	buf.WriteByte(byte(len(p.Chunks)))
	buf.WriteString(markerProgStart)

	for _, c := range p.Chunks {
		buf.WriteByte(c.BytecodeLen)
		buf.WriteByte(c.ConstantsLen)
		buf.Write(c.Bytecode[:])
		buf.Write(c.Constants[:])
	}

	buf.WriteString(markerProgEnd)
	buf.WriteString(markerScopeStart)

	scope, err := p.Scope.Encode()
	if err != nil {
		return nil, err
	}
	buf.Write(scope)

	return buf.Bytes(), nil
}

// DecodeProgram parses a serialized program container. Every structural
// fault is an error; there are no partially valid programs.
func DecodeProgram(data []byte) (*Program, error) {
	pos := 0
	expect := func(marker, name string) error {
		if len(data)-pos < len(marker) || string(data[pos:pos+len(marker)]) != marker {
			return &HeaderError{Marker: name}
		}
		pos += len(marker)
		return nil
	}

	if err := expect(markerProgram, "program declaration"); err != nil {
		return nil, err
	}

	nl := bytes.IndexByte(data[pos:], '\n')
	if nl < 0 {
		return nil, &HeaderError{Marker: "version"}
	}
	version := string(data[pos : pos+nl])
	pos += nl + 1
	if version != Version {
		return nil, &HeaderError{Marker: "version"}
	}

	if pos >= len(data) {
		return nil, &HeaderError{Marker: "chunk count"}
	}
	count := int(data[pos])
	pos++

	if err := expect(markerProgStart, "PROGSTART"); err != nil {
		return nil, err
	}

	chunks := make([]SealedChunk, count)
	for i := range chunks {
		if pos+2 > len(data) {
			return nil, ErrMissingLength
		}
		chunks[i].BytecodeLen = data[pos]
		chunks[i].ConstantsLen = data[pos+1]
		pos += 2

		// Used counts stay strictly below the capacity.
		if chunks[i].BytecodeLen == ChunkCapacity || chunks[i].ConstantsLen == ChunkCapacity {
			return nil, ErrInvalidLength
		}

		if pos+2*ChunkCapacity > len(data) {
			return nil, ErrUnexpectedEOF
		}
		copy(chunks[i].Bytecode[:], data[pos:pos+ChunkCapacity])
		pos += ChunkCapacity
		copy(chunks[i].Constants[:], data[pos:pos+ChunkCapacity])
		pos += ChunkCapacity
	}

	if err := expect(markerProgEnd, "PROGEND"); err != nil {
		return nil, err
	}
	if err := expect(markerScopeStart, "SCOPESTART"); err != nil {
		return nil, err
	}

	scope, err := DecodeScope(data[pos:])
	if err != nil {
		return nil, err
	}

	return &Program{Chunks: chunks, Scope: scope}, nil
}
