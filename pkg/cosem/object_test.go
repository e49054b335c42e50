package cosem

import "testing"

func TestObjectAccessDefaults(t *testing.T) {
	obj := &Object{ClassID: ObjectTypeClock, LogicalName: ClockName}

	if obj.AttributeAccess(2) != AccessReadWrite {
		t.Errorf("expected class default rw for time, got %s", obj.AttributeAccess(2))
	}
	if obj.AttributeAccess(42) != AccessNone {
		t.Errorf("expected no access for unknown attribute, got %s", obj.AttributeAccess(42))
	}
	if obj.MethodAccessOf(1) != MethodAccessAllowed {
		t.Errorf("expected method allowed without rights, got %s", obj.MethodAccessOf(1))
	}
}

func TestObjectDeclaredAccess(t *testing.T) {
	obj := &Object{
		ClassID:      ObjectTypeRegister,
		LogicalName:  "1.0.1.8.0.255",
		Access:       map[int]Access{1: AccessRead, 2: AccessRead},
		MethodAccess: map[int]MethodAccess{1: MethodNoAccess},
	}

	if obj.AttributeAccess(2) != AccessRead {
		t.Errorf("expected r, got %s", obj.AttributeAccess(2))
	}
	// Attribute 3 is missing from the declared rights.
	if obj.AttributeAccess(3) != AccessNone {
		t.Errorf("expected none, got %s", obj.AttributeAccess(3))
	}
	if obj.MethodAccessOf(1) != MethodNoAccess {
		t.Errorf("expected no access, got %s", obj.MethodAccessOf(1))
	}
}

func TestObjectCounts(t *testing.T) {
	obj := &Object{ClassID: ObjectTypeAssociationLogicalName, Version: 1}
	n, ok := obj.AttributeCount()
	if !ok || n != 9 {
		t.Errorf("expected 9 attributes, got %d (ok=%v)", n, ok)
	}

	unknown := &Object{ClassID: ObjectType(500)}
	if _, ok := unknown.MethodCount(); ok {
		t.Error("expected unknown class to report ok=false")
	}
}

func TestObjectUIDataType(t *testing.T) {
	obj := &Object{
		ClassID: ObjectTypeData,
		UITypes: map[int]DataType{2: DataTypeString},
	}
	if obj.UIDataType(2) != DataTypeString {
		t.Errorf("expected override, got %s", obj.UIDataType(2))
	}
	if obj.UIDataType(1) != DataTypeLogicalName {
		t.Errorf("expected logical-name, got %s", obj.UIDataType(1))
	}
}

func TestObjectClone(t *testing.T) {
	orig := &Object{
		ClassID:     ObjectTypeData,
		LogicalName: LogicalDeviceName,
		Access:      map[int]Access{2: AccessRead},
		Values:      map[int]Value{2: NewOctetString([]byte("MTR"))},
	}

	c := orig.Clone()
	c.Access[2] = AccessReadWrite
	b, _ := c.Values[2].Bytes()
	b[0] = 'X'

	if orig.Access[2] != AccessRead {
		t.Error("clone shares access map")
	}
	ob, _ := orig.Values[2].Bytes()
	if string(ob) != "MTR" {
		t.Errorf("clone shares value bytes, original is %q", ob)
	}

	var nilObj *Object
	if nilObj.Clone() != nil {
		t.Error("expected nil clone of nil object")
	}
}
