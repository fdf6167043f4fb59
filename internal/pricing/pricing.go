package pricing

import (
	"errors"
	"fmt"

	"github.com/sticonf/registration/internal/model"
)

// ErrValidation marks an unsupported or inconsistent registrant selection.
// Handlers map it to a field-incorrect response rather than a server error.
var ErrValidation = errors.New("invalid registration selection")

// Fees in whole naira.
const (
	IndividualFee = 200_000

	StatePackageFee = 5_500_000

	FederalExhibitionFee = 500_000
	FederalConferenceFee = 250_000

	EducationExhibitionFee = 350_000

	ProfessionalExhibitionFee = 500_000
	ProfessionalConferenceFee = 300_000

	ProductExhibitionFee = 350_000
	ProductConferenceFee = 250_000
)

type Selection struct {
	RegistrationType string
	Sector           string
	GovLevel         string
	Exhibition       bool
	Conference       bool
	Participants     int
}

// Quote is the itemized fee breakdown for a selection. Amounts are whole
// naira; conversion to kobo happens only at the payment-provider boundary.
type Quote struct {
	ExhibitionFee int64 `json:"exhibition_fee"`
	ConferenceFee int64 `json:"conference_fee"`
	Total         int64 `json:"total"`
}

// Price computes the fee breakdown for a registrant selection. The total is
// frozen onto the registration at creation time; nothing recomputes it later.
// Unknown combinations fail with ErrValidation, never a zero total.
func Price(sel Selection) (Quote, error) {
	if sel.Participants == 0 {
		sel.Participants = 1
	}
	if sel.Participants < 1 {
		return Quote{}, fmt.Errorf("%w: participants must be at least 1", ErrValidation)
	}

	switch sel.RegistrationType {
	case model.TypeIndividual:
		// Flat fee regardless of flags or participant count.
		return Quote{ConferenceFee: IndividualFee, Total: IndividualFee}, nil

	case model.TypeGovernment:
		switch sel.GovLevel {
		case model.GovLevelState:
			// Flat package covering pavilion plus seven participants,
			// never itemized by the exhibition/conference flags.
			return Quote{Total: StatePackageFee}, nil
		case model.GovLevelFederal:
			return itemized(sel, FederalExhibitionFee, FederalConferenceFee)
		default:
			return Quote{}, fmt.Errorf("%w: unknown government level %q", ErrValidation, sel.GovLevel)
		}

	case model.TypeOrganization:
		switch sel.Sector {
		case model.SectorEducation:
			if sel.Conference {
				return Quote{}, fmt.Errorf("%w: conference access is not offered to the education sector", ErrValidation)
			}
			return itemized(sel, EducationExhibitionFee, 0)
		case model.SectorProfessionalBodies:
			return itemized(sel, ProfessionalExhibitionFee, ProfessionalConferenceFee)
		case model.SectorProductCompany:
			return itemized(sel, ProductExhibitionFee, ProductConferenceFee)
		default:
			return Quote{}, fmt.Errorf("%w: unknown sector %q", ErrValidation, sel.Sector)
		}
	}

	return Quote{}, fmt.Errorf("%w: unknown registration type %q", ErrValidation, sel.RegistrationType)
}

func itemized(sel Selection, exhibitionFee, perParticipantFee int64) (Quote, error) {
	var q Quote
	if sel.Exhibition {
		q.ExhibitionFee = exhibitionFee
	}
	if sel.Conference {
		q.ConferenceFee = perParticipantFee * int64(sel.Participants)
	}
	q.Total = q.ExhibitionFee + q.ConferenceFee
	if q.Total == 0 {
		return Quote{}, fmt.Errorf("%w: no exhibition or conference option selected", ErrValidation)
	}
	return q, nil
}
