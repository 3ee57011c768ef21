package hash

import "testing"

func TestHashTextSha256(t *testing.T) {
	a := HashTextSha256("hello")
	b := HashTextSha256("hello")
	c := HashTextSha256("hello ")
	if a != b {
		t.Error("sha256 hash not stable")
	}
	if a == c {
		t.Error("distinct inputs should hash differently")
	}
	if len(a) != 64 {
		t.Errorf("hex sha256 length = %d; want 64", len(a))
	}
}

func TestFastHash(t *testing.T) {
	if len(FastHash("x")) != 8 {
		t.Error("FastHash must return 8 bytes")
	}
	if string(FastHash("a")) == string(FastHash("b")) {
		t.Error("distinct inputs should hash differently")
	}
}

func TestHashDeterministic(t *testing.T) {
	data := []byte("some content")
	if Hash(data) != Hash(data) {
		t.Error("murmur3 hash not stable")
	}
}
