package loader_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/cosem-conformance/conformance-go/internal/testharness/loader"
	"github.com/cosem-conformance/conformance-go/pkg/cosem"
	"github.com/cosem-conformance/conformance-go/pkg/pdu"
)

const dataScript = `<Messages>
  <GetRequest>
    <GetRequestNormal>
      <InvokeIdAndPriority Value="C1" />
      <AttributeDescriptor>
        <ClassId Value="0001" />
        <InstanceId Value="000000000000" />
        <AttributeId Value="02" />
      </AttributeDescriptor>
    </GetRequestNormal>
  </GetRequest>
  <GetResponse>
    <GetResponseNormal>
      <InvokeIdAndPriority Value="C1" />
      <Result>
        <Data>
          <Any />
        </Data>
      </Result>
    </GetResponseNormal>
  </GetResponse>
</Messages>`

const clockScript = `<Messages>
  <Snrm />
  <GetRequest>
    <GetRequestNormal>
      <AttributeDescriptor>
        <ClassId Value="0008" />
        <InstanceId Value="0000010000FF" />
        <AttributeId Value="02" />
      </AttributeDescriptor>
    </GetRequestNormal>
  </GetRequest>
  <GetResponse>
    <GetResponseNormal>
      <Result>
        <Data>
          <OctetString Value="*" />
        </Data>
      </Result>
    </GetResponseNormal>
  </GetResponse>
</Messages>`

func TestBuiltinCatalog(t *testing.T) {
	cat, err := loader.Builtin()
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}
	if len(cat.Definitions) == 0 {
		t.Fatal("Builtin() returned no definitions")
	}

	for _, def := range cat.Definitions {
		if len(def.Actions)%2 != 0 {
			t.Errorf("%s: odd number of actions %d", def.Name, len(def.Actions))
		}
		if _, ok := cosem.Lookup(def.ClassID); !ok {
			t.Errorf("%s: class %s not in the capability table", def.Name, def.ClassID)
		}
	}

	for _, ot := range []cosem.ObjectType{cosem.ObjectTypeData, cosem.ObjectTypeClock, cosem.ObjectTypeAssociationLogicalName} {
		if !cat.Covers(ot) {
			t.Errorf("builtin catalog does not cover %s", ot)
		}
	}
	if cat.Covers(cosem.ObjectTypeLimiter) {
		t.Error("builtin catalog unexpectedly covers Limiter")
	}

	covered := cat.ClassesCovered()
	for i := 1; i < len(covered); i++ {
		if covered[i-1] >= covered[i] {
			t.Fatalf("ClassesCovered() not sorted and unique: %v", covered)
		}
	}
}

func TestLoadBuiltinFilter(t *testing.T) {
	fsys := fstest.MapFS{
		"cosem-data.xml": {Data: []byte(dataScript)},
		"notes.txt":      {Data: []byte("not a script")},
		"other-data.xml": {Data: []byte("<broken")},
		"cosem-data.bak": {Data: []byte("<broken")},
	}

	cat, err := loader.LoadBuiltin(fsys)
	if err != nil {
		t.Fatalf("LoadBuiltin() error = %v", err)
	}
	if len(cat.Definitions) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(cat.Definitions))
	}
	def := cat.Definitions[0]
	if def.Name != "cosem-data" {
		t.Errorf("Name = %q, want cosem-data", def.Name)
	}
	if def.ClassID != cosem.ObjectTypeData {
		t.Errorf("ClassID = %s, want Data", def.ClassID)
	}
}

func TestLoadBuiltinFailClosed(t *testing.T) {
	fsys := fstest.MapFS{
		"cosem-a.xml": {Data: []byte(dataScript)},
		"cosem-b.xml": {Data: []byte("<Messages><GetResponse /></Messages>")},
		"cosem-c.xml": {Data: []byte(dataScript)},
	}

	cat, err := loader.LoadBuiltin(fsys)
	if err == nil {
		t.Fatal("expected error for malformed builtin script")
	}
	if cat != nil {
		t.Errorf("expected no catalog, got %d definitions", len(cat.Definitions))
	}

	var le *loader.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError, got %T", err)
	}
	if le.File != "cosem-b.xml" {
		t.Errorf("LoadError.File = %q, want cosem-b.xml", le.File)
	}
}

func TestLoadBuiltinNoDescriptor(t *testing.T) {
	fsys := fstest.MapFS{
		"cosem-control.xml": {Data: []byte("<Messages><Snrm /><Ua /></Messages>")},
	}
	if _, err := loader.LoadBuiltin(fsys); err == nil {
		t.Fatal("expected error for script without descriptor")
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func TestLoadExternal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.xml", dataScript)
	writeFile(t, dir, "b.xml", "<Messages><GetRequest>")
	writeFile(t, dir, "c.XML", clockScript)
	writeFile(t, dir, "readme.md", "# scripts")
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "nested"), "d.xml", dataScript)

	scripts, errs := loader.LoadExternal(dir)
	if len(scripts) != 2 {
		t.Fatalf("expected 2 scripts, got %d", len(scripts))
	}
	if scripts[0].Name != "a.xml" || scripts[1].Name != "c.XML" {
		t.Errorf("unexpected script order: %s, %s", scripts[0].Name, scripts[1].Name)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	var le *loader.LoadError
	if !errors.As(errs[0], &le) || filepath.Base(le.File) != "b.xml" {
		t.Errorf("expected LoadError for b.xml, got %v", errs[0])
	}

	n, err := loader.ValidateExternal(dir)
	if err == nil {
		t.Error("ValidateExternal() should fail when a script is malformed")
	}
	if n != 2 {
		t.Errorf("ValidateExternal() loaded %d, want 2", n)
	}
}

func TestLoadExternalMissingDir(t *testing.T) {
	for _, dir := range []string{"", filepath.Join(t.TempDir(), "missing")} {
		scripts, errs := loader.LoadExternal(dir)
		if len(scripts) != 0 || len(errs) != 0 {
			t.Errorf("LoadExternal(%q) = %d scripts, %v; want empty", dir, len(scripts), errs)
		}
	}
}

func TestBind(t *testing.T) {
	fsys := fstest.MapFS{
		"cosem-data.xml":  {Data: []byte(dataScript)},
		"cosem-clock.xml": {Data: []byte(clockScript)},
	}
	cat, err := loader.LoadBuiltin(fsys)
	if err != nil {
		t.Fatalf("LoadBuiltin() error = %v", err)
	}

	objects := []*cosem.Object{
		{ClassID: cosem.ObjectTypeData, LogicalName: "0.0.42.0.0.255"},
		{ClassID: cosem.ObjectTypeData, LogicalName: "1.0.0.2.0.255"},
		{ClassID: cosem.ObjectTypeRegister, LogicalName: "1.0.1.8.0.255"},
	}
	bound := cat.Bind(objects)
	if len(bound) != 2 {
		t.Fatalf("expected 2 bound tests, got %d", len(bound))
	}

	for i, b := range bound {
		if b.Object != objects[i] {
			t.Errorf("bound[%d] bound to %s", i, b.Object)
		}
		d, ok, err := b.Actions[0].Descriptor()
		if !ok || err != nil {
			t.Fatalf("bound[%d]: descriptor ok=%v err=%v", i, ok, err)
		}
		if d.InstanceID != objects[i].LogicalName {
			t.Errorf("bound[%d] instance = %s, want %s", i, d.InstanceID, objects[i].LogicalName)
		}
	}

	// The definition itself is left untouched.
	var def *loader.TestDefinition
	for _, d := range cat.Definitions {
		if d.ClassID == cosem.ObjectTypeData {
			def = d
		}
	}
	d, _, _ := def.Actions[0].Descriptor()
	if d.InstanceID != "0.0.0.0.0.0" {
		t.Errorf("definition mutated: instance = %s", d.InstanceID)
	}
}

func TestBindSkipsOtherCommands(t *testing.T) {
	def := &loader.TestDefinition{
		Name:    "mixed",
		ClassID: cosem.ObjectTypeData,
		Actions: []*pdu.Action{pdu.NewControl(pdu.CommandSnrm)},
	}
	bound := loader.Bind([]*loader.TestDefinition{def}, []*cosem.Object{{ClassID: cosem.ObjectTypeData, LogicalName: "0.0.96.1.0.255"}})
	if len(bound) != 1 {
		t.Fatalf("expected 1 bound test, got %d", len(bound))
	}
	if bound[0].Actions[0] == def.Actions[0] {
		t.Error("bound actions share pointers with the definition")
	}
}

func TestBindDropsUnaddressableObjects(t *testing.T) {
	cat, err := loader.LoadBuiltin(fstest.MapFS{"cosem-data.xml": {Data: []byte(dataScript)}})
	if err != nil {
		t.Fatalf("LoadBuiltin() error = %v", err)
	}
	objects := []*cosem.Object{
		{ClassID: cosem.ObjectTypeData, LogicalName: "0.0.42.0.0.255"},
		{ClassID: cosem.ObjectTypeData, LogicalName: ""},
		{ClassID: cosem.ObjectTypeData, LogicalName: "0.0.96.1"},
	}
	bound := cat.Bind(objects)
	if len(bound) != 1 {
		t.Fatalf("expected 1 bound test, got %d", len(bound))
	}
	if bound[0].Object != objects[0] {
		t.Errorf("bound %q, want 0.0.42.0.0.255", bound[0].Object.LogicalName)
	}
}

func TestLoadErrorMessage(t *testing.T) {
	err := &loader.LoadError{File: "a.xml", Line: 12, Message: "failed to parse script", Cause: errors.New("eof")}
	if got := err.Error(); got != "a.xml:12: failed to parse script: eof" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, err.Cause) {
		t.Error("LoadError does not unwrap to its cause")
	}
}
