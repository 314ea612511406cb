package bytecode

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/mx-mw/blush/pkg/lexer"
)

func encodeTestProgram(t *testing.T, src string) (*Program, []byte) {
	t.Helper()
	prog, err := Compile(lexer.New(src))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	data, err := prog.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	return prog, data
}

func TestProgramEncodeDecodeRoundTrip(t *testing.T) {
	prog, data := encodeTestProgram(t, "let x = 8 + 12; let y = x * 2;")

	decoded, err := DecodeProgram(data)
	if err != nil {
		t.Fatalf("DecodeProgram failed: %v", err)
	}

	if len(decoded.Chunks) != len(prog.Chunks) {
		t.Fatalf("decoded %d chunks, want %d", len(decoded.Chunks), len(prog.Chunks))
	}
	for i := range prog.Chunks {
		if decoded.Chunks[i] != prog.Chunks[i] {
			t.Errorf("chunk %d differs after round trip", i)
		}
	}
	if decoded.Scope.NumVars != prog.Scope.NumVars {
		t.Errorf("NumVars = %d, want %d", decoded.Scope.NumVars, prog.Scope.NumVars)
	}
}

func TestProgramEncodeDeterministic(t *testing.T) {
	_, first := encodeTestProgram(t, "let x = 1;")
	_, second := encodeTestProgram(t, "let x = 1;")
	if !bytes.Equal(first, second) {
		t.Error("encoding the same source twice produced different bytes")
	}
}

func TestProgramHeaderLayout(t *testing.T) {
	prog, data := encodeTestProgram(t, "1 + 2;")

	if !bytes.HasPrefix(data, []byte("BLUSHPROGRAM\n"+Version+"\n")) {
		t.Errorf("header = %q", data[:20])
	}

	headerLen := len("BLUSHPROGRAM\n") + len(Version) + 1
	if int(data[headerLen]) != len(prog.Chunks) {
		t.Errorf("count byte = %d, want %d", data[headerLen], len(prog.Chunks))
	}
	if !bytes.HasPrefix(data[headerLen+1:], []byte("PROGSTART\n")) {
		t.Error("PROGSTART marker missing after count byte")
	}
	if !bytes.Contains(data, []byte("\nPROGEND")) {
		t.Error("PROGEND marker missing")
	}
	if !bytes.Contains(data, []byte("\nSCOPESTART\n")) {
		t.Error("SCOPESTART marker missing")
	}
}

func TestProgramDecodedRunsIdentically(t *testing.T) {
	_, data := encodeTestProgram(t, "let sum = 8 + 12;")

	decoded, err := DecodeProgram(data)
	if err != nil {
		t.Fatalf("DecodeProgram failed: %v", err)
	}

	vm := NewVM(decoded.Open(), decoded.Scope)
	if err := vm.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	v, ok := vm.Scope().Resolve("sum")
	if !ok {
		t.Fatal("sum not found")
	}
	if !v.Value.Equal(Number(20)) {
		t.Errorf("sum = %s, want 20", v.Value)
	}
}

func TestDecodeProgramBadMagic(t *testing.T) {
	_, data := encodeTestProgram(t, "1;")
	data[0] = 'X'

	_, err := DecodeProgram(data)
	var header *HeaderError
	if !errors.As(err, &header) {
		t.Fatalf("error = %v, want *HeaderError", err)
	}
	if header.Marker != "program declaration" {
		t.Errorf("Marker = %q, want \"program declaration\"", header.Marker)
	}
}

func TestDecodeProgramBadVersion(t *testing.T) {
	_, data := encodeTestProgram(t, "1;")
	mangled := bytes.Replace(data, []byte(Version+"\n"), []byte("9.9.9\n"), 1)

	_, err := DecodeProgram(mangled)
	var header *HeaderError
	if !errors.As(err, &header) {
		t.Fatalf("error = %v, want *HeaderError", err)
	}
	if header.Marker != "version" {
		t.Errorf("Marker = %q, want \"version\"", header.Marker)
	}
}

func TestDecodeProgramMissingCount(t *testing.T) {
	data := []byte("BLUSHPROGRAM\n" + Version + "\n")

	_, err := DecodeProgram(data)
	var header *HeaderError
	if !errors.As(err, &header) {
		t.Fatalf("error = %v, want *HeaderError", err)
	}
	if header.Marker != "chunk count" {
		t.Errorf("Marker = %q, want \"chunk count\"", header.Marker)
	}
}

func TestDecodeProgramBadProgStart(t *testing.T) {
	_, data := encodeTestProgram(t, "1;")
	idx := bytes.Index(data, []byte("PROGSTART"))
	data[idx] = 'X'

	_, err := DecodeProgram(data)
	var header *HeaderError
	if !errors.As(err, &header) {
		t.Fatalf("error = %v, want *HeaderError", err)
	}
	if header.Marker != "PROGSTART" {
		t.Errorf("Marker = %q, want \"PROGSTART\"", header.Marker)
	}
}

func TestDecodeProgramMissingLength(t *testing.T) {
	_, data := encodeTestProgram(t, "1;")
	idx := bytes.Index(data, []byte("PROGSTART\n"))
	truncated := data[:idx+len("PROGSTART\n")]

	_, err := DecodeProgram(truncated)
	if !errors.Is(err, ErrMissingLength) {
		t.Errorf("error = %v, want ErrMissingLength", err)
	}
}

func TestDecodeProgramTruncatedPayload(t *testing.T) {
	_, data := encodeTestProgram(t, "1;")
	idx := bytes.Index(data, []byte("PROGSTART\n"))
	// Keep the length bytes but cut into the padded payload.
	truncated := data[:idx+len("PROGSTART\n")+2+100]

	_, err := DecodeProgram(truncated)
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("error = %v, want ErrUnexpectedEOF", err)
	}
}

func TestDecodeProgramLengthAtCapacity(t *testing.T) {
	// A used count of 255 would let a counter reach the capacity, which
	// no sealed chunk can produce.
	_, data := encodeTestProgram(t, "1;")
	idx := bytes.Index(data, []byte("PROGSTART\n")) + len("PROGSTART\n")

	for _, offset := range []int{0, 1} {
		mangled := append([]byte{}, data...)
		mangled[idx+offset] = ChunkCapacity

		_, err := DecodeProgram(mangled)
		if !errors.Is(err, ErrInvalidLength) {
			t.Errorf("length byte %d: error = %v, want ErrInvalidLength", offset, err)
		}
	}
}

func TestDecodeProgramBadProgEnd(t *testing.T) {
	_, data := encodeTestProgram(t, "1;")
	idx := bytes.Index(data, []byte("\nPROGEND"))
	data[idx+1] = 'X'

	_, err := DecodeProgram(data)
	var header *HeaderError
	if !errors.As(err, &header) {
		t.Fatalf("error = %v, want *HeaderError", err)
	}
	if header.Marker != "PROGEND" {
		t.Errorf("Marker = %q, want \"PROGEND\"", header.Marker)
	}
}

func TestDecodeProgramBadScopeStart(t *testing.T) {
	_, data := encodeTestProgram(t, "1;")
	idx := bytes.Index(data, []byte("\nSCOPESTART\n"))
	truncated := data[:idx]

	_, err := DecodeProgram(truncated)
	var header *HeaderError
	if !errors.As(err, &header) {
		t.Fatalf("error = %v, want *HeaderError", err)
	}
	if header.Marker != "SCOPESTART" {
		t.Errorf("Marker = %q, want \"SCOPESTART\"", header.Marker)
	}
}

func TestDecodeProgramBadScope(t *testing.T) {
	_, data := encodeTestProgram(t, "1;")
	idx := bytes.Index(data, []byte("\nSCOPESTART\n"))
	mangled := append([]byte{}, data[:idx+len("\nSCOPESTART\n")]...)
	mangled = append(mangled, 0xFF, 0x12)

	if _, err := DecodeProgram(mangled); err == nil {
		t.Error("decoding garbage scope did not fail")
	}
}

func TestEncodeProgramTooManyChunks(t *testing.T) {
	prog := &Program{Chunks: make([]SealedChunk, 256)}
	if _, err := prog.Encode(); err == nil {
		t.Error("encoding 256 chunks did not fail")
	}
}

func TestProgramMultiChunkRoundTrip(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("let v")
		sb.WriteByte(byte('a' + i%26))
		sb.WriteString(" = 1;")
	}
	prog, data := encodeTestProgram(t, sb.String())

	if len(prog.Chunks) < 2 {
		t.Fatalf("want a multi-chunk program, got %d chunks", len(prog.Chunks))
	}

	decoded, err := DecodeProgram(data)
	if err != nil {
		t.Fatalf("DecodeProgram failed: %v", err)
	}
	for i := range prog.Chunks {
		if decoded.Chunks[i] != prog.Chunks[i] {
			t.Errorf("chunk %d differs after round trip", i)
		}
	}
}
