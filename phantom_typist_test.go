// phantom_typist_test.go - grounds §D.3's keystroke injector sources and
// pacing against a keyboard matrix.

package main

import "testing"

func TestFixedScriptSourceYieldsInOrder(t *testing.T) {
	src := NewFixedScriptSource("LOAD")
	want := []byte("LOAD")
	for i, w := range want {
		b, ok := src.NextKey()
		if !ok {
			t.Fatalf("NextKey() exhausted early at index %d", i)
		}
		if b != w {
			t.Fatalf("NextKey() = %q, want %q at index %d", b, w, i)
		}
	}
	if _, ok := src.NextKey(); ok {
		t.Fatalf("NextKey() should report exhausted after the full script")
	}
}

func TestLuaScriptSourceCollectsTypeCalls(t *testing.T) {
	src, err := NewLuaScriptSource(`type("LOAD ")
type("\"\"")
`)
	if err != nil {
		t.Fatalf("NewLuaScriptSource failed: %v", err)
	}

	var got []byte
	for {
		b, ok := src.NextKey()
		if !ok {
			break
		}
		got = append(got, b)
	}
	if string(got) != `LOAD ""` {
		t.Fatalf("collected keystrokes = %q, want %q", got, `LOAD ""`)
	}
}

func TestLuaScriptSourceSyntaxErrorIsReported(t *testing.T) {
	_, err := NewLuaScriptSource("this is not lua (((")
	if err == nil {
		t.Fatalf("expected an error for invalid Lua source")
	}
}

// TestPhantomTypistPacesInjection grounds the interval between consecutive
// enqueue calls: 'b' (row 7, col 4) must not be pressed until
// phantomTypistInterval Tick calls have elapsed after 'a' (row 1, col 0)
// was injected. KeyboardHost's own auto-release (host.Tick, driven by the
// frame driver, not exercised here) plays no part in this pacing.
func TestPhantomTypistPacesInjection(t *testing.T) {
	matrix := NewKeyboardMatrix()
	host := NewKeyboardHost(matrix)
	typist := NewPhantomTypist(NewFixedScriptSource("ab"), host)

	typist.Tick() // injects 'a', arms framesUntilNext = phantomTypistInterval
	if matrix.rows[1]&0x01 != 0 {
		t.Fatalf("'a' should have been pressed on the first Tick")
	}
	if matrix.rows[7]&0x10 == 0 {
		t.Fatalf("'b' should not have been pressed yet")
	}

	// phantomTypistInterval further Ticks only count down framesUntilNext to
	// zero; the injection itself happens on the following Tick.
	for i := 0; i < phantomTypistInterval; i++ {
		typist.Tick()
		if matrix.rows[7]&0x10 == 0 {
			t.Fatalf("'b' should not be pressed before the pacing interval elapses")
		}
	}

	typist.Tick() // framesUntilNext is now zero: this call injects 'b'
	if matrix.rows[7]&0x10 != 0 {
		t.Fatalf("'b' should have been pressed once the pacing interval elapsed")
	}
}
