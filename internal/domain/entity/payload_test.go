package entity

import (
	"strings"
	"testing"
)

func TestDecodePayload_UnknownType(t *testing.T) {
	_, err := DecodePayload(RequestType("PIGEON_POST"), []byte(`{}`))
	if err == nil {
		t.Fatal("DecodePayload() should fail for unknown request type")
	}
	if !strings.Contains(err.Error(), "unknown request type") {
		t.Errorf("DecodePayload() error = %v, want unknown request type", err)
	}
}

func TestDecodePayload_EmptyBody(t *testing.T) {
	payload, err := DecodePayload(RequestTypeItemClaim, nil)
	if err != nil {
		t.Fatalf("DecodePayload() failed: %v", err)
	}
	if err := payload.Validate(); err == nil {
		t.Error("Validate() should fail for an empty claim payload")
	}
}

func TestDecodePayload_EveryVariant(t *testing.T) {
	tests := []struct {
		requestType RequestType
		body        string
		itemRef     string
	}{
		{RequestTypeItemClaim, `{"item_id":"ITM-1","proof_description":"blue backpack, torn strap"}`, "ITM-1"},
		{RequestTypeCrossCampusTransfer, `{"item_id":"ITM-2","pickup_location":"west lobby"}`, "ITM-2"},
		{RequestTypeTransitTransfer, `{"item_id":"ITM-3","station_name":"Park Street"}`, "ITM-3"},
		{RequestTypeAirportTransfer, `{"item_id":"ITM-4","terminal":"B"}`, "ITM-4"},
		{RequestTypePoliceEvidence, `{"item_id":"ITM-5","case_number":"2026-00412"}`, "ITM-5"},
		{RequestTypeMBTAEmergency, `{"item_id":"ITM-6","flight_number":"BA212","traveler_name":"R. Osei","traveler_contact":"+1-617-555-0000"}`, "ITM-6"},
		{RequestTypeDispute, `{"item_id":"ITM-7","summary":"two claimants, one violin"}`, "ITM-7"},
	}

	for _, tt := range tests {
		t.Run(string(tt.requestType), func(t *testing.T) {
			payload, err := DecodePayload(tt.requestType, []byte(tt.body))
			if err != nil {
				t.Fatalf("DecodePayload() failed: %v", err)
			}
			if payload.Type() != tt.requestType {
				t.Errorf("Type() = %v, want %v", payload.Type(), tt.requestType)
			}
			if err := payload.Validate(); err != nil {
				t.Errorf("Validate() failed: %v", err)
			}
			if payload.ItemRef() != tt.itemRef {
				t.Errorf("ItemRef() = %v, want %v", payload.ItemRef(), tt.itemRef)
			}
		})
	}
}

func TestPayloadValidate_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		payload RequestPayload
	}{
		{"claim without item", &ItemClaimPayload{}},
		{"transit transfer without station", &TransitToUniversityTransferPayload{ItemID: "ITM-1"}},
		{"airport transfer without terminal", &AirportToUniversityTransferPayload{ItemID: "ITM-1"}},
		{"evidence without case number", &PoliceEvidencePayload{ItemID: "ITM-1"}},
		{"emergency without traveler contact", &MBTAToAirportEmergencyPayload{ItemID: "ITM-1", FlightNumber: "BA212", TravelerName: "R. Osei"}},
		{"dispute without summary", &MultiEnterpriseDisputePayload{ItemID: "ITM-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.payload.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestRequestType_IsValid(t *testing.T) {
	for _, rt := range AllRequestTypes {
		if !rt.IsValid() {
			t.Errorf("IsValid() = false for %s", rt)
		}
	}
	if RequestType("CARRIER_PIGEON").IsValid() {
		t.Error("IsValid() = true for unknown type")
	}
}

func TestPriority_Rank(t *testing.T) {
	if PriorityUrgent.Rank() <= PriorityHigh.Rank() {
		t.Error("URGENT should outrank HIGH")
	}
	if PriorityHigh.Rank() <= PriorityNormal.Rank() {
		t.Error("HIGH should outrank NORMAL")
	}
	if PriorityNormal.Rank() <= PriorityLow.Rank() {
		t.Error("NORMAL should outrank LOW")
	}
	if Priority("WHENEVER").IsValid() {
		t.Error("IsValid() = true for unknown priority")
	}
}

func TestWorkRequest_RoleAtCurrentStep(t *testing.T) {
	request := &WorkRequest{
		Chain:     []string{"CAMPUS_COORDINATOR", "POLICE"},
		ChainStep: 0,
	}

	if got := request.RoleAtCurrentStep(); got != "CAMPUS_COORDINATOR" {
		t.Errorf("RoleAtCurrentStep() = %v, want CAMPUS_COORDINATOR", got)
	}
	if request.IsLastStep() {
		t.Error("IsLastStep() = true at step 0 of 2")
	}

	request.ChainStep = 1
	if got := request.RoleAtCurrentStep(); got != "POLICE" {
		t.Errorf("RoleAtCurrentStep() = %v, want POLICE", got)
	}
	if !request.IsLastStep() {
		t.Error("IsLastStep() = false at final step")
	}

	request.ChainStep = 2
	if got := request.RoleAtCurrentStep(); got != "" {
		t.Errorf("RoleAtCurrentStep() = %q, want empty past the chain end", got)
	}
}
