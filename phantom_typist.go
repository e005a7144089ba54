// phantom_typist.go - the keystroke injector (§D.3) that types BASIC loader
// prompts without manual input, grounded on original_source/spectrum.c's
// phantom_typist_frame() call at the top of the frame sequence. Sources are
// pluggable: a fixed script, a clipboard paste (golang.design/x/clipboard,
// a teacher-declared but teacher-unused require), or a Lua-scripted sequence
// (gopher-lua, grounded on the pack's lua_evaluator.go NewState/DoString/
// SetGlobal/NewFunction idiom).

package main

import (
	"fmt"

	"golang.design/x/clipboard"
	lua "github.com/yuin/gopher-lua"
)

// phantomTypistInterval is how many frames apart consecutive keystrokes are
// injected, giving the ROM's keyboard scan loop time to observe and release
// each one (KeyboardHost already holds a key for keyHoldFrames frames; this
// spacing keeps two injected keys from overlapping in the matrix).
const phantomTypistInterval = 3

// PhantomTypistSource supplies the next keystroke to inject, or false once
// exhausted.
type PhantomTypistSource interface {
	NextKey() (byte, bool)
}

// FixedScriptSource types a fixed byte string in order, one key per call.
type FixedScriptSource struct {
	script []byte
	pos    int
}

// NewFixedScriptSource returns a source that types text verbatim, in ASCII.
func NewFixedScriptSource(text string) *FixedScriptSource {
	return &FixedScriptSource{script: []byte(text)}
}

func (s *FixedScriptSource) NextKey() (byte, bool) {
	if s.pos >= len(s.script) {
		return 0, false
	}
	b := s.script[s.pos]
	s.pos++
	return b, true
}

// ClipboardSource types the system clipboard's text contents, read once at
// construction time.
type ClipboardSource struct {
	text []byte
	pos  int
}

// NewClipboardSource reads the clipboard via clipboard.Init/Read. If the
// clipboard is unavailable (headless environment, no display server) it
// returns a source that yields nothing rather than failing construction.
func NewClipboardSource() *ClipboardSource {
	if err := clipboard.Init(); err != nil {
		return &ClipboardSource{}
	}
	return &ClipboardSource{text: clipboard.Read(clipboard.FmtText)}
}

func (s *ClipboardSource) NextKey() (byte, bool) {
	if s.pos >= len(s.text) {
		return 0, false
	}
	b := s.text[s.pos]
	s.pos++
	return b, true
}

// LuaScriptSource sources keystrokes from a Lua script's calls to the
// injected type(string) function, which appends to an internal queue
// consumed one byte at a time. Lets a loader script compute or branch on
// what to type rather than hardcoding a fixed string.
type LuaScriptSource struct {
	queue []byte
	pos   int
}

// NewLuaScriptSource runs script once, collecting every type(...) call's
// argument into the injection queue.
func NewLuaScriptSource(script string) (*LuaScriptSource, error) {
	src := &LuaScriptSource{}

	L := lua.NewState()
	defer L.Close()

	L.SetGlobal("type", L.NewFunction(func(L *lua.LState) int {
		text := L.CheckString(1)
		src.queue = append(src.queue, []byte(text)...)
		return 0
	}))

	if err := L.DoString(script); err != nil {
		return nil, fmt.Errorf("phantom typist script: %w", err)
	}
	return src, nil
}

func (s *LuaScriptSource) NextKey() (byte, bool) {
	if s.pos >= len(s.queue) {
		return 0, false
	}
	b := s.queue[s.pos]
	s.pos++
	return b, true
}

// PhantomTypist is the frame-ticked peripheral (§4.7 step 4) that drains a
// PhantomTypistSource into a KeyboardHost, paced by phantomTypistInterval.
type PhantomTypist struct {
	source          PhantomTypistSource
	host            *KeyboardHost
	framesUntilNext int
}

// NewPhantomTypist returns a typist injecting source's keystrokes into host.
func NewPhantomTypist(source PhantomTypistSource, host *KeyboardHost) *PhantomTypist {
	return &PhantomTypist{source: source, host: host}
}

// Tick implements FrameTicker.
func (p *PhantomTypist) Tick() {
	if p.framesUntilNext > 0 {
		p.framesUntilNext--
		return
	}
	b, ok := p.source.NextKey()
	if !ok {
		return
	}
	p.host.enqueue(b)
	p.framesUntilNext = phantomTypistInterval
}
