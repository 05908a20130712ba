package archive

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stagekit/resnode/pkg/region"
	"github.com/stagekit/resnode/pkg/resource"
)

func TestHeader(t *testing.T) {
	t.Run("MarshalUnmarshal", func(t *testing.T) {
		original := &Header{
			Magic:            Magic,
			HeaderLength:     16,
			Length:           1024,
			CompressedLength: 512,
		}

		data, err := original.MarshalBinary()
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}

		decoded := &Header{}
		if err := decoded.UnmarshalBinary(data); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}

		if *decoded != *original {
			t.Errorf("mismatch: got %+v, want %+v", decoded, original)
		}
	})

	t.Run("LZ4Magic", func(t *testing.T) {
		h := NewHeader(MethodLZ4, 10, 5)
		if err := h.Validate(); err != nil {
			t.Fatalf("validate: %v", err)
		}
		if h.Method() != MethodLZ4 {
			t.Errorf("method: got %s", h.Method())
		}
	})

	t.Run("InvalidMagic", func(t *testing.T) {
		h := &Header{
			Magic:            [4]byte{0x00, 0x00, 0x00, 0x00},
			HeaderLength:     16,
			Length:           1024,
			CompressedLength: 512,
		}
		if err := h.Validate(); err == nil {
			t.Error("expected error for invalid magic")
		}
	})

	t.Run("ZeroLength", func(t *testing.T) {
		h := &Header{
			Magic:            Magic,
			HeaderLength:     16,
			Length:           0,
			CompressedLength: 512,
		}
		if err := h.Validate(); err == nil {
			t.Error("expected error for zero length")
		}
	})
}

func TestReadWrite(t *testing.T) {
	original := []byte("Hello, World! This is test data for compression.")

	for _, method := range []Method{MethodZstd, MethodLZ4} {
		t.Run(method.String()+"/EncodeDecodeRoundTrip", func(t *testing.T) {
			var buf bytes.Buffer

			ws := &seekableBuffer{Buffer: &buf}

			if err := Encode(ws, original, WithMethod(method)); err != nil {
				t.Fatalf("encode: %v", err)
			}

			rs := bytes.NewReader(buf.Bytes())
			decoded, err := ReadAll(rs)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}

			if !bytes.Equal(decoded, original) {
				t.Errorf("data mismatch: got %q, want %q", decoded, original)
			}
		})

		t.Run(method.String()+"/MarshalMatchesReader", func(t *testing.T) {
			packed, err := Marshal(original, WithMethod(method))
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}

			decoded, err := ReadAll(bytes.NewReader(packed))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !bytes.Equal(decoded, original) {
				t.Errorf("data mismatch: got %q, want %q", decoded, original)
			}
		})
	}
}

func testContext() *resource.Context {
	return &resource.Context{
		Registry: resource.NewRegistry(
			resource.Format{Name: "ZSTD", Match: MatchZstd, New: New},
			resource.Format{Name: "LZ4F", Match: MatchLZ4, New: New},
		),
	}
}

func TestNode(t *testing.T) {
	payload := bytes.Repeat([]byte("attribute table payload "), 16)

	for _, method := range []Method{MethodZstd, MethodLZ4} {
		packed, err := Marshal(payload, WithMethod(method))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}

		t.Run(method.String()+"/Populate", func(t *testing.T) {
			n := testContext().Parse(nil, "STGROOT", region.New(packed))
			arc, ok := n.(*Node)
			if !ok {
				t.Fatalf("got %s, want Archive", n.Type())
			}
			if arc.Method() != method {
				t.Errorf("method: got %s", arc.Method())
			}

			children := arc.Children()
			if len(children) != 1 {
				t.Fatalf("got %d children, want 1", len(children))
			}
			raw, ok := children[0].(*resource.Raw)
			if !ok {
				t.Fatalf("child: got %s, want Raw", children[0].Type())
			}
			if !bytes.Equal(raw.Data(), payload) {
				t.Error("payload mismatch")
			}
			if raw.Name() != "STGROOT" {
				t.Errorf("child name: got %q", raw.Name())
			}
		})

		t.Run(method.String()+"/UnchangedCopiesSource", func(t *testing.T) {
			n := testContext().Parse(nil, "STGROOT", region.New(packed))
			n.Meta().Children()

			out, err := resource.Encode(n)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if !bytes.Equal(out, packed) {
				t.Error("rebuild is not byte-identical")
			}
		})

		t.Run(method.String()+"/ChangedRecompresses", func(t *testing.T) {
			n := testContext().Parse(nil, "STGROOT", region.New(packed))
			raw := n.Meta().Children()[0].(*resource.Raw)
			edited := append([]byte("edited "), payload...)
			raw.SetData(edited)

			out, err := resource.Encode(n)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}

			h := &Header{}
			if err := h.UnmarshalBinary(out); err != nil {
				t.Fatalf("header: %v", err)
			}
			if h.Method() != method || h.Length != uint64(len(edited)) {
				t.Errorf("header: got %+v", h)
			}

			decoded, err := ReadAll(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !bytes.Equal(decoded, edited) {
				t.Error("edit lost in recompression")
			}
		})
	}
}

func TestNodeMalformed(t *testing.T) {
	ctx := testContext()

	t.Run("BadHeaderStaysPacked", func(t *testing.T) {
		data := make([]byte, HeaderSize+4)
		h := NewHeader(MethodZstd, 10, 4)
		h.HeaderLength = 99
		h.EncodeTo(data)

		n := ctx.Parse(nil, "bad", region.New(data))
		if n.Type() != resource.TypeArchive {
			t.Fatalf("got %s, want Archive", n.Type())
		}
		if len(n.Meta().Children()) != 0 {
			t.Error("invalid header should not populate")
		}
		if len(n.Meta().Diagnostics()) == 0 {
			t.Error("expected a diagnostic")
		}

		out, _ := resource.Encode(n)
		if !bytes.Equal(out, data) {
			t.Error("rebuild is not byte-identical")
		}
	})

	t.Run("TruncatedIsRaw", func(t *testing.T) {
		packed, _ := Marshal([]byte("some payload bytes"))
		n := ctx.Parse(nil, "short", region.New(packed[:len(packed)-2]))
		if n.Type() != resource.TypeRaw {
			t.Errorf("got %s, want Raw", n.Type())
		}
	})

	t.Run("OversizedPayload", func(t *testing.T) {
		data := make([]byte, HeaderSize+8)
		NewHeader(MethodZstd, MaxPayload+1, 8).EncodeTo(data)

		n := ctx.Parse(nil, "huge", region.New(data))
		if len(n.Meta().Children()) != 0 {
			t.Error("oversized payload should not populate")
		}
		found := false
		for _, d := range resource.Diagnostics(n) {
			if strings.Contains(d.Message, "exceeds") {
				found = true
			}
		}
		if !found {
			t.Errorf("expected size diagnostic, got %v", resource.Diagnostics(n))
		}
	})

	t.Run("CorruptPayload", func(t *testing.T) {
		data := make([]byte, HeaderSize+8)
		NewHeader(MethodZstd, 32, 8).EncodeTo(data)
		copy(data[HeaderSize:], "notzstd!")

		n := ctx.Parse(nil, "corrupt", region.New(data))
		if len(n.Meta().Children()) != 0 {
			t.Error("corrupt payload should not populate")
		}
		if len(resource.Diagnostics(n)) == 0 {
			t.Error("expected a populate diagnostic")
		}

		out, err := resource.Encode(n)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(out, data) {
			t.Error("rebuild is not byte-identical")
		}
	})
}

// countedNode is a leaf that counts how often it is sized.
type countedNode struct {
	resource.Base
	sizes int
}

var countedTag = [4]byte{'C', 'N', 'T', '!'}

func (n *countedNode) Type() resource.Type { return resource.TypeUnknown }

func (n *countedNode) OnInitialize(ctx *resource.Context) (bool, error) { return false, nil }

func (n *countedNode) OnPopulate(ctx *resource.Context) error { return nil }

func (n *countedNode) OnCalculateSize() int {
	n.sizes++
	return n.Source().Len()
}

func (n *countedNode) OnRebuild(dst region.Region) error {
	return dst.CopyFrom(0, n.Source().Bytes())
}

func TestNodePacksOnce(t *testing.T) {
	ctx := testContext()
	ctx.Registry.Register("CNT!", resource.TagMatcher(countedTag), func() resource.Node { return &countedNode{} })

	payload := append(countedTag[:], bytes.Repeat([]byte("x"), 64)...)
	packed, err := Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}

	n := ctx.Parse(nil, "root", region.New(packed))
	child, ok := n.Meta().Children()[0].(*countedNode)
	if !ok {
		t.Fatalf("child: got %s", n.Meta().Children()[0].Type())
	}
	child.SignalChange()

	out, err := resource.Encode(n)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if child.sizes != 1 {
		t.Errorf("child sized %d times during one encode, want 1", child.sizes)
	}

	decoded, err := ReadAll(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Error("payload mismatch after recompression")
	}
}

type seekableBuffer struct {
	*bytes.Buffer
	pos int64
}

func (s *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case 0:
		newPos = offset
	case 1:
		newPos = s.pos + offset
	case 2:
		newPos = int64(s.Buffer.Len()) + offset
	}
	s.pos = newPos
	return newPos, nil
}

func (s *seekableBuffer) Write(p []byte) (n int, err error) {
	for int64(s.Buffer.Len()) < s.pos {
		s.Buffer.WriteByte(0)
	}
	if s.pos < int64(s.Buffer.Len()) {
		data := s.Buffer.Bytes()
		n = copy(data[s.pos:], p)
		if n < len(p) {
			m, err := s.Buffer.Write(p[n:])
			n += m
			if err != nil {
				return n, err
			}
		}
	} else {
		n, err = s.Buffer.Write(p)
	}
	s.pos += int64(n)
	return n, err
}
