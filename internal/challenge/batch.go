package challenge

import (
	"fmt"

	"github.com/Fantasim/hdada/internal/address"
	"github.com/Fantasim/hdada/internal/hdkey"
	"github.com/Fantasim/hdada/internal/models"
	"github.com/Fantasim/hdada/internal/signer"
)

// VerifyBatch checks every item independently. A malformed item counts as
// invalid and is reported in Errors; it never stops the batch.
func VerifyBatch(items []models.VerifyItem) models.BatchVerifyReport {
	report := models.BatchVerifyReport{
		Total:   len(items),
		Errors:  []string{},
		Results: make([]models.VerifyItemResult, 0, len(items)),
	}

	for i, item := range items {
		res := verifyItem(item)
		res.Index = i
		if res.Valid {
			report.Valid++
		} else {
			report.Invalid++
			if res.Error == "" {
				res.Error = "signature does not verify"
				if res.SignatureValid {
					res.Error = ErrKeyMismatch.Error()
				}
			}
			report.Errors = append(report.Errors, fmt.Sprintf("item %d: %s", i, res.Error))
		}
		report.Results = append(report.Results, res)
	}
	return report
}

func verifyItem(item models.VerifyItem) models.VerifyItemResult {
	var res models.VerifyItemResult

	pub, err := hdkey.ParsePublicKey(item.PublicKey)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	sig, err := signer.ParseSignature(item.Signature)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	msg, err := signer.DecodeMessage(item.Message, item.Encoding)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.SignatureValid = signer.Verify(pub, msg, sig)
	res.Valid = res.SignatureValid

	if item.Address != "" {
		addr, err := address.Parse(item.Address)
		if err != nil {
			res.Valid = false
			res.Error = err.Error()
			return res
		}
		controls := Controls(addr, pub)
		res.ControlsAddress = &controls
		res.Valid = res.Valid && controls
	}
	return res
}
