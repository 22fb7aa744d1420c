package trainingctx

import (
	"fmt"
	"time"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/utils"
)

// fingerprintInput is the canonical form hashed into a history fingerprint.
// Slices are already date ordered, so hashing them in order is stable.
type fingerprintInput struct {
	AsOf    string
	Records []models.ActivityRecord
	Efforts []models.EffortBest
	DOB     string
	Gender  string
}

// Fingerprint hashes everything the derived context depends on. Any change to
// a record, an effort best or the profile changes the value.
func Fingerprint(asOf time.Time, records []models.ActivityRecord, efforts []models.EffortBest, profile models.Profile) (uint64, error) {
	in := fingerprintInput{
		AsOf:    utils.FormatDate(asOf),
		Records: records,
		Efforts: efforts,
		DOB:     profile.DOB,
		Gender:  profile.Gender,
	}
	h, err := hashstructure.Hash(in, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to fingerprint history: %w", err)
	}
	return h, nil
}
