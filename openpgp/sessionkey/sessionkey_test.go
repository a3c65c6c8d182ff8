package sessionkey

import "testing"

func TestNewRoundTripsBytes(t *testing.T) {
	want := []byte{1, 2, 3, 4, 5}
	k := New(want)
	defer k.Destroy()

	got := k.Bytes()
	if len(got) != len(want) {
		t.Fatalf("got %d bytes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestNewRandomLength(t *testing.T) {
	k := NewRandom(32)
	defer k.Destroy()

	if len(k.Bytes()) != 32 {
		t.Fatalf("got %d bytes, want 32", len(k.Bytes()))
	}
}
