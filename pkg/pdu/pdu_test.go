package pdu

import (
	"strings"
	"testing"

	"github.com/cosem-conformance/conformance-go/pkg/cosem"
)

const clockScript = `<?xml version="1.0" encoding="utf-8"?>
<Messages>
  <!-- Read logical name. -->
  <GetRequest>
    <GetRequestNormal>
      <InvokeIdAndPriority Value="C1" />
      <AttributeDescriptor>
        <ClassId Value="0008" />
        <InstanceId Value="0000010000FF" />
        <AttributeId Value="01" />
      </AttributeDescriptor>
    </GetRequestNormal>
  </GetRequest>
  <GetResponse>
    <GetResponseNormal>
      <InvokeIdAndPriority Value="C1" />
      <Result>
        <Data>
          <OctetString Value="0000010000FF" />
        </Data>
      </Result>
    </GetResponseNormal>
  </GetResponse>
  <ActionRequest>
    <ActionRequestNormal>
      <InvokeIdAndPriority Value="C1" />
      <MethodDescriptor>
        <ClassId Value="0008" />
        <InstanceId Value="0000010000FF" />
        <MethodId Value="06" />
      </MethodDescriptor>
      <MethodInvocationParameters>
        <Int16 Value="-60" />
      </MethodInvocationParameters>
    </ActionRequestNormal>
  </ActionRequest>
  <ActionResponse>
    <ActionResponseNormal>
      <InvokeIdAndPriority Value="C1" />
      <Result Value="Success" />
    </ActionResponseNormal>
  </ActionResponse>
</Messages>`

func TestParseScript(t *testing.T) {
	actions, err := ParseScript(strings.NewReader(clockScript))
	if err != nil {
		t.Fatalf("ParseScript failed: %v", err)
	}
	if len(actions) != 4 {
		t.Fatalf("expected 4 actions, got %d", len(actions))
	}

	want := []Command{CommandGetRequest, CommandGetResponse, CommandMethodRequest, CommandMethodResponse}
	for i, c := range want {
		if actions[i].Command != c {
			t.Errorf("action %d: expected %s, got %s", i, c, actions[i].Command)
		}
	}

	d, ok, err := actions[0].Descriptor()
	if err != nil || !ok {
		t.Fatalf("Descriptor failed: ok=%v err=%v", ok, err)
	}
	if d.ClassID != cosem.ObjectTypeClock || d.InstanceID != "0.0.1.0.0.255" || d.Index != 1 || d.IsMethod {
		t.Errorf("unexpected descriptor %+v", d)
	}

	d, _, _ = actions[2].Descriptor()
	if !d.IsMethod || d.Index != 6 {
		t.Errorf("expected method 6, got %+v", d)
	}
	if d.String() != "Clock 0.0.1.0.0.255#6" {
		t.Errorf("unexpected descriptor string %q", d.String())
	}

	v, ok, err := actions[2].Payload()
	if err != nil || !ok {
		t.Fatalf("Payload failed: ok=%v err=%v", ok, err)
	}
	if n, _ := v.Int(); n != -60 {
		t.Errorf("expected -60, got %v", v)
	}

	code, err := actions[3].ResultCode()
	if err != nil || code != cosem.ErrorCodeOk {
		t.Errorf("expected success, got %s (%v)", code, err)
	}
}

func TestParseScriptErrors(t *testing.T) {
	tests := map[string]string{
		"wrong root":        `<Script><Snrm /></Script>`,
		"unknown command":   `<Messages><ReadRequest /></Messages>`,
		"leading response":  `<Messages><GetResponse /></Messages>`,
		"two responses":     `<Messages><Snrm /><Ua /><Ua /></Messages>`,
		"bad class id":      `<Messages><GetRequest><AttributeDescriptor><ClassId Value="XYZ" /><InstanceId Value="0000010000FF" /><AttributeId Value="02" /></AttributeDescriptor></GetRequest></Messages>`,
		"short instance id": `<Messages><GetRequest><AttributeDescriptor><ClassId Value="0008" /><InstanceId Value="000001" /><AttributeId Value="02" /></AttributeDescriptor></GetRequest></Messages>`,
		"empty instance id": `<Messages><GetRequest><AttributeDescriptor><ClassId Value="0008" /><InstanceId Value="" /><AttributeId Value="02" /></AttributeDescriptor></GetRequest></Messages>`,
		"blank instance id": `<Messages><GetRequest><AttributeDescriptor><ClassId Value="0008" /><InstanceId Value="  " /><AttributeId Value="02" /></AttributeDescriptor></GetRequest></Messages>`,
		"no instance id":    `<Messages><GetRequest><AttributeDescriptor><ClassId Value="0008" /><AttributeId Value="02" /></AttributeDescriptor></GetRequest></Messages>`,
		"unclosed":          `<Messages><Snrm>`,
		"empty":             ``,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseScript(strings.NewReader(doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSetInstanceID(t *testing.T) {
	actions, err := ParseScript(strings.NewReader(clockScript))
	if err != nil {
		t.Fatalf("ParseScript failed: %v", err)
	}

	clone := actions[0].Clone()
	if err := clone.SetInstanceID("0.1.1.0.0.255"); err != nil {
		t.Fatalf("SetInstanceID failed: %v", err)
	}
	d, _, _ := clone.Descriptor()
	if d.InstanceID != "0.1.1.0.0.255" {
		t.Errorf("expected rewritten instance, got %s", d.InstanceID)
	}
	orig, _, _ := actions[0].Descriptor()
	if orig.InstanceID != "0.0.1.0.0.255" {
		t.Errorf("clone shares nodes with original: %s", orig.InstanceID)
	}

	if err := clone.SetInstanceID(""); err == nil {
		t.Error("expected error for empty logical name")
	}
	if err := NewControl(CommandSnrm).SetInstanceID("0.0.1.0.0.255"); err == nil {
		t.Error("expected error for action without descriptor")
	}
}

func TestValueRoundTrip(t *testing.T) {
	v := cosem.NewStructure(
		cosem.NewUint(cosem.TagUInt8, 6),
		cosem.NewArray(cosem.NewOctetString([]byte{0x01, 0xFF}), cosem.Null()),
		cosem.NewBool(true),
		cosem.NewString("MTR"),
	)
	n := EncodeValue(v)
	if q, _ := n.Attr("Qty"); q != "04" {
		t.Errorf("expected Qty 04, got %q", q)
	}
	back, err := DecodeValue(n)
	if err != nil {
		t.Fatalf("DecodeValue failed: %v", err)
	}
	if !back.Equal(v) {
		t.Errorf("expected %s, got %s", v, back)
	}
}

func TestDecodeValueQuantityMismatch(t *testing.T) {
	n := NewNode("Structure").SetAttr("Qty", "02").Add(NewValueNode("UInt8", "1"))
	if _, err := DecodeValue(n); err == nil {
		t.Error("expected quantity mismatch error")
	}
}

func TestBuildersRoundTrip(t *testing.T) {
	d := Descriptor{ClassID: cosem.ObjectTypeRegister, InstanceID: "1.0.1.8.0.255", Index: 2}
	req, err := NewGetRequest(d)
	if err != nil {
		t.Fatalf("NewGetRequest failed: %v", err)
	}

	actions, err := ParseScript(strings.NewReader(MarshalScript([]*Action{
		req, NewGetResponse(cosem.NewUint(cosem.TagUInt32, 1234)),
	})))
	if err != nil {
		t.Fatalf("ParseScript failed: %v", err)
	}
	got, _, _ := actions[0].Descriptor()
	if got != d {
		t.Errorf("expected %+v, got %+v", d, got)
	}
	v, ok, err := actions[1].Payload()
	if err != nil || !ok {
		t.Fatalf("Payload failed: ok=%v err=%v", ok, err)
	}
	if n, _ := v.Int(); n != 1234 {
		t.Errorf("expected 1234, got %s", v)
	}
}

func TestResultCode(t *testing.T) {
	tests := []struct {
		name string
		a    *Action
		want cosem.ErrorCode
	}{
		{"get ok", NewGetResponse(cosem.Null()), cosem.ErrorCodeOk},
		{"get denied", NewGetResponseError(cosem.ErrorCodeReadWriteDenied), cosem.ErrorCodeReadWriteDenied},
		{"set ok", NewSetResponse(cosem.ErrorCodeOk), cosem.ErrorCodeOk},
		{"set type", NewSetResponse(cosem.ErrorCodeTypeUnmatched), cosem.ErrorCodeTypeUnmatched},
		{"method other", NewMethodResponse(cosem.ErrorCodeOtherReason, nil), cosem.ErrorCodeOtherReason},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.ResultCode()
			if err != nil {
				t.Fatalf("ResultCode failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestNodeXML(t *testing.T) {
	n := NewNode("Data").Add(NewValueNode("String", `a<b"c`))
	want := "<Data>\n  <String Value=\"a&lt;b&#34;c\" />\n</Data>\n"
	if got := n.XML(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	back, err := ParseString(n.XML())
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	if back.Children[0].Value() != `a<b"c` {
		t.Errorf("unexpected value %q", back.Children[0].Value())
	}
}

func TestNodeBinaryRoundTrip(t *testing.T) {
	req, err := NewSetRequest(Descriptor{ClassID: cosem.ObjectTypeData, InstanceID: "0.0.96.1.0.255", Index: 2},
		cosem.NewOctetString([]byte("123")))
	if err != nil {
		t.Fatalf("NewSetRequest failed: %v", err)
	}

	data, err := EncodeNode(req.Node)
	if err != nil {
		t.Fatalf("EncodeNode failed: %v", err)
	}
	back, err := DecodeNode(data)
	if err != nil {
		t.Fatalf("DecodeNode failed: %v", err)
	}
	if back.XML() != req.Node.XML() {
		t.Errorf("binary round trip changed document:\n%s\nvs\n%s", back.XML(), req.Node.XML())
	}

	if _, err := DecodeNode([]byte{0xff}); err == nil {
		t.Error("expected decode error")
	}
}
