package entity

import (
	"encoding/json"
	"errors"
	"fmt"
)

// RequestPayload is the type-specific portion of a work request. The set of
// implementations is closed: exactly one per RequestType.
type RequestPayload interface {
	// Type returns the request variant the payload belongs to
	Type() RequestType

	// Validate checks the required fields for the variant
	Validate() error

	// ItemRef returns the referenced item ID, empty if none
	ItemRef() string
}

// ItemClaimPayload carries ownership-claim details for a found item
type ItemClaimPayload struct {
	ItemID           string `json:"item_id"`
	ItemTitle        string `json:"item_title,omitempty"`
	ProofDescription string `json:"proof_description,omitempty"`
	ContactPhone     string `json:"contact_phone,omitempty"`
}

func (p *ItemClaimPayload) Type() RequestType { return RequestTypeItemClaim }
func (p *ItemClaimPayload) ItemRef() string   { return p.ItemID }

func (p *ItemClaimPayload) Validate() error {
	if p.ItemID == "" {
		return errors.New("item_id is required")
	}
	return nil
}

// CrossCampusTransferPayload moves an item between campuses of the same enterprise
type CrossCampusTransferPayload struct {
	ItemID         string `json:"item_id"`
	PickupLocation string `json:"pickup_location,omitempty"`
	Note           string `json:"note,omitempty"`
}

func (p *CrossCampusTransferPayload) Type() RequestType { return RequestTypeCrossCampusTransfer }
func (p *CrossCampusTransferPayload) ItemRef() string   { return p.ItemID }

func (p *CrossCampusTransferPayload) Validate() error {
	if p.ItemID == "" {
		return errors.New("item_id is required")
	}
	return nil
}

// TransitToUniversityTransferPayload hands a transit find over to a campus office
type TransitToUniversityTransferPayload struct {
	ItemID       string `json:"item_id"`
	StationName  string `json:"station_name"`
	LineName     string `json:"line_name,omitempty"`
	StudentName  string `json:"student_name,omitempty"`
	StudentEmail string `json:"student_email,omitempty"`
}

func (p *TransitToUniversityTransferPayload) Type() RequestType { return RequestTypeTransitTransfer }
func (p *TransitToUniversityTransferPayload) ItemRef() string   { return p.ItemID }

func (p *TransitToUniversityTransferPayload) Validate() error {
	if p.ItemID == "" {
		return errors.New("item_id is required")
	}
	if p.StationName == "" {
		return errors.New("station_name is required")
	}
	return nil
}

// AirportToUniversityTransferPayload hands an airport find over to a campus office
type AirportToUniversityTransferPayload struct {
	ItemID       string `json:"item_id"`
	Terminal     string `json:"terminal"`
	FlightNumber string `json:"flight_number,omitempty"`
	StudentName  string `json:"student_name,omitempty"`
	StudentEmail string `json:"student_email,omitempty"`
}

func (p *AirportToUniversityTransferPayload) Type() RequestType { return RequestTypeAirportTransfer }
func (p *AirportToUniversityTransferPayload) ItemRef() string   { return p.ItemID }

func (p *AirportToUniversityTransferPayload) Validate() error {
	if p.ItemID == "" {
		return errors.New("item_id is required")
	}
	if p.Terminal == "" {
		return errors.New("terminal is required")
	}
	return nil
}

// PoliceEvidencePayload requests custody of an item as case evidence
type PoliceEvidencePayload struct {
	ItemID      string `json:"item_id"`
	CaseNumber  string `json:"case_number"`
	OfficerName string `json:"officer_name,omitempty"`
	LegalBasis  string `json:"legal_basis,omitempty"`
}

func (p *PoliceEvidencePayload) Type() RequestType { return RequestTypePoliceEvidence }
func (p *PoliceEvidencePayload) ItemRef() string   { return p.ItemID }

func (p *PoliceEvidencePayload) Validate() error {
	if p.ItemID == "" {
		return errors.New("item_id is required")
	}
	if p.CaseNumber == "" {
		return errors.New("case_number is required")
	}
	return nil
}

// MBTAToAirportEmergencyPayload rushes a transit find to a departing traveler
type MBTAToAirportEmergencyPayload struct {
	ItemID          string `json:"item_id"`
	FlightNumber    string `json:"flight_number"`
	TravelerName    string `json:"traveler_name"`
	TravelerContact string `json:"traveler_contact"`
	DepartureTime   string `json:"departure_time,omitempty"`
	StationName     string `json:"station_name,omitempty"`
}

func (p *MBTAToAirportEmergencyPayload) Type() RequestType { return RequestTypeMBTAEmergency }
func (p *MBTAToAirportEmergencyPayload) ItemRef() string   { return p.ItemID }

func (p *MBTAToAirportEmergencyPayload) Validate() error {
	if p.ItemID == "" {
		return errors.New("item_id is required")
	}
	if p.FlightNumber == "" {
		return errors.New("flight_number is required")
	}
	if p.TravelerName == "" {
		return errors.New("traveler_name is required")
	}
	if p.TravelerContact == "" {
		return errors.New("traveler_contact is required")
	}
	return nil
}

// MultiEnterpriseDisputePayload escalates an ownership dispute across enterprises
type MultiEnterpriseDisputePayload struct {
	ItemID                string   `json:"item_id"`
	Summary               string   `json:"summary"`
	InvolvedEnterpriseIDs []string `json:"involved_enterprise_ids,omitempty"`
}

func (p *MultiEnterpriseDisputePayload) Type() RequestType { return RequestTypeDispute }
func (p *MultiEnterpriseDisputePayload) ItemRef() string   { return p.ItemID }

func (p *MultiEnterpriseDisputePayload) Validate() error {
	if p.ItemID == "" {
		return errors.New("item_id is required")
	}
	if p.Summary == "" {
		return errors.New("summary is required")
	}
	return nil
}

// DecodePayload unmarshals the type-specific payload for a request variant.
// Unknown variants are an error; decoding never falls through to a generic map.
func DecodePayload(requestType RequestType, data []byte) (RequestPayload, error) {
	var payload RequestPayload
	switch requestType {
	case RequestTypeItemClaim:
		payload = &ItemClaimPayload{}
	case RequestTypeCrossCampusTransfer:
		payload = &CrossCampusTransferPayload{}
	case RequestTypeTransitTransfer:
		payload = &TransitToUniversityTransferPayload{}
	case RequestTypeAirportTransfer:
		payload = &AirportToUniversityTransferPayload{}
	case RequestTypePoliceEvidence:
		payload = &PoliceEvidencePayload{}
	case RequestTypeMBTAEmergency:
		payload = &MBTAToAirportEmergencyPayload{}
	case RequestTypeDispute:
		payload = &MultiEnterpriseDisputePayload{}
	default:
		return nil, fmt.Errorf("unknown request type: %s", requestType)
	}

	if len(data) == 0 {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, payload); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", requestType, err)
	}

	return payload, nil
}

// EncodePayload marshals a payload for storage
func EncodePayload(payload RequestPayload) ([]byte, error) {
	if payload == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", payload.Type(), err)
	}
	return data, nil
}
