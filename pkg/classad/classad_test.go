package classad

import "testing"

func TestParseDescriptorRoundTrip(t *testing.T) {
	text := `[ CPU = 4; OwnerDN = "/CN=alice"; OwnerGroup = "g1"; Requirements = (other.CPU >= 2); ]`
	d, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cpu, ok := d.GetAttribute("CPU")
	if !ok || cpu.Kind != KindInt || cpu.Int != 4 {
		t.Fatalf("CPU attribute = %+v, ok=%v", cpu, ok)
	}

	again, err := Parse(d.AsText())
	if err != nil {
		t.Fatalf("re-parse of AsText() output: %v", err)
	}
	dn, ok := again.GetAttribute("OwnerDN")
	if !ok || dn.Str != "/CN=alice" {
		t.Fatalf("round-tripped OwnerDN = %+v, ok=%v", dn, ok)
	}
}

func TestMissingRequirementsDefaultsTrue(t *testing.T) {
	d, err := Parse(`[ CPU = 4; ]`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ok, err := EvaluateRequirements(d, NewDescriptor())
	if err != nil {
		t.Fatalf("EvaluateRequirements: %v", err)
	}
	if !ok {
		t.Fatal("expected default Requirements to evaluate true")
	}
}

func TestEvaluateRequirementsNumericComparison(t *testing.T) {
	resource := NewDescriptor()
	resource.Set("CPU", IntValue(4))

	job, err := Parse(`[ Requirements = (other.CPU >= 2); ]`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ok, err := EvaluateRequirements(job, resource)
	if err != nil {
		t.Fatalf("EvaluateRequirements: %v", err)
	}
	if !ok {
		t.Fatal("expected job requirements to be satisfied by resource with CPU=4")
	}
}

func TestEvaluateRequirementsUnknownRefIsFalse(t *testing.T) {
	job, err := Parse(`[ Requirements = (other.Nonexistent == 1); ]`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ok, err := EvaluateRequirements(job, NewDescriptor())
	if err != nil {
		t.Fatalf("EvaluateRequirements: %v", err)
	}
	if ok {
		t.Fatal("unknown attribute reference should evaluate to false, not true")
	}
}

func TestFindJobIDHint(t *testing.T) {
	expr, err := ParseExpr(`(other.JobID == 77)`)
	if err != nil {
		t.Fatalf("ParseExpr: %v", err)
	}
	n, ok := FindJobIDHint(expr)
	if !ok || n != 77 {
		t.Fatalf("FindJobIDHint = %d, %v; want 77, true", n, ok)
	}
}

func TestFindSitePinsSingle(t *testing.T) {
	expr, err := ParseExpr(`(other.Site == "S1" && other.CPU >= 1)`)
	if err != nil {
		t.Fatalf("ParseExpr: %v", err)
	}
	sites := FindSitePins(expr)
	if len(sites) != 1 || sites[0] != "S1" {
		t.Fatalf("FindSitePins = %v; want [S1]", sites)
	}
}

func TestFindSitePinsNoneOutsideAnd(t *testing.T) {
	// A Site pin inside an || is not "top-level" and must not count.
	expr, err := ParseExpr(`(other.Site == "S1" || other.Site == "S2")`)
	if err != nil {
		t.Fatalf("ParseExpr: %v", err)
	}
	sites := FindSitePins(expr)
	if len(sites) != 0 {
		t.Fatalf("FindSitePins = %v; want none (pins inside || don't count)", sites)
	}
}

func TestMatchSymmetry(t *testing.T) {
	a, err := Parse(`[ CPU = 4; Requirements = (other.CPU >= 2); ]`)
	if err != nil {
		t.Fatalf("Parse a: %v", err)
	}
	b, err := Parse(`[ CPU = 8; Requirements = (other.CPU >= 1); ]`)
	if err != nil {
		t.Fatalf("Parse b: %v", err)
	}
	ab, err := EvaluateRequirements(a, b)
	if err != nil {
		t.Fatalf("a vs b: %v", err)
	}
	ba, err := EvaluateRequirements(b, a)
	if err != nil {
		t.Fatalf("b vs a: %v", err)
	}
	if !ab || !ba {
		t.Fatalf("expected symmetric match, got ab=%v ba=%v", ab, ba)
	}
}
