package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Sum([]byte("abc")); got != want {
		t.Errorf("Sum = %s, want %s", got, want)
	}
}

func TestMatches(t *testing.T) {
	sum := Sum([]byte("note"))
	if !Matches(sum, []byte("note")) {
		t.Error("same content should match")
	}
	if Matches(sum, []byte("other")) {
		t.Error("different content should not match")
	}
	if Matches("", []byte("")) {
		t.Error("empty sum should never match")
	}
}
