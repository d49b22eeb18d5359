package reactloop

import "testing"

func call(name string, args ...string) *ParsedCall {
	m := map[string]string{}
	for i := 0; i+1 < len(args); i += 2 {
		m[args[i]] = args[i+1]
	}
	return &ParsedCall{Name: name, Arguments: m}
}

func TestDetectorFlagsRepeatedCall(t *testing.T) {
	d := newLoopDetector(4)
	for i := 0; i < 3; i++ {
		if d.Observe(call("show_file", "file_path", "a.py")) {
			t.Fatalf("flagged too early at call %d", i+1)
		}
	}
	if !d.Observe(call("show_file", "file_path", "a.py")) {
		t.Error("expected repeat of length 1 to be flagged")
	}
}

func TestDetectorFlagsAlternatingPair(t *testing.T) {
	d := newLoopDetector(6)
	flagged := false
	for i := 0; i < 6; i++ {
		if i%2 == 0 {
			flagged = d.Observe(call("show_file", "file_path", "a.py"))
		} else {
			flagged = d.Observe(call("run_bash_cmd", "command", "ls"))
		}
	}
	if !flagged {
		t.Error("expected alternating pair to be flagged")
	}
}

func TestDetectorIgnoresVariedArguments(t *testing.T) {
	d := newLoopDetector(4)
	files := []string{"a.py", "b.py", "c.py", "d.py"}
	for _, f := range files {
		if d.Observe(call("show_file", "file_path", f)) {
			t.Errorf("varied arguments must not flag (file %s)", f)
		}
	}
}

func TestDetectorReset(t *testing.T) {
	d := newLoopDetector(2)
	d.Observe(call("x"))
	if !d.Observe(call("x")) {
		t.Fatal("expected flag")
	}
	d.Reset()
	if d.Observe(call("x")) {
		t.Error("fresh window must not flag on the first call")
	}
}

func TestDetectorDisabled(t *testing.T) {
	d := newLoopDetector(0)
	for i := 0; i < 10; i++ {
		if d.Observe(call("x")) {
			t.Fatal("disabled detector must never flag")
		}
	}
}

func TestCallSignatureOrderIndependent(t *testing.T) {
	a := callSignature(call("t", "k1", "v1", "k2", "v2"))
	b := callSignature(call("t", "k2", "v2", "k1", "v1"))
	if a != b {
		t.Error("signature must not depend on argument order")
	}
	c := callSignature(call("t", "k1", "v1", "k2", "other"))
	if a == c {
		t.Error("different argument values must produce different signatures")
	}
}
