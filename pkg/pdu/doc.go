// Package pdu models COSEM application PDUs as XML documents.
//
// Test scripts and device replies share one representation: a tree of
// elements whose scalar content lives in Value attributes.
//
//	<GetRequest>
//	  <GetRequestNormal>
//	    <InvokeIdAndPriority Value="C1" />
//	    <AttributeDescriptor>
//	      <ClassId Value="0008" />
//	      <InstanceId Value="0000010000FF" />
//	      <AttributeId Value="02" />
//	    </AttributeDescriptor>
//	  </GetRequestNormal>
//	</GetRequest>
//
// # Scripts
//
// A script is a <Messages> document whose children alternate between
// requests and the responses expected for them. ClassId, AttributeId and
// MethodId are hexadecimal; InstanceId is the six-byte logical name in
// hex.
//
// # Data
//
// Data values are typed elements named after their tag (UInt8, Structure,
// OctetString...). Arrays and structures carry their items as children.
//
// # Binary form
//
// Nodes also have a compact CBOR form with integer keys, used by links
// that carry documents instead of encoded APDUs.
package pdu
