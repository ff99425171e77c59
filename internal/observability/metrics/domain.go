package metrics

// Transaction records a submitted transaction.
func Transaction(contract, method, status string) {
	if !enabled {
		return
	}
	transactionTotal.WithLabelValues(contract, method, status).Inc()
}

// Restored records transactions replayed at startup.
func Restored(n int) {
	if !enabled {
		return
	}
	restoredTotal.Add(float64(n))
}

// ArtifactMint records minted artifacts. kind is "single" or "batch".
func ArtifactMint(kind string, count int) {
	if !enabled {
		return
	}
	artifactMintTotal.WithLabelValues(kind).Add(float64(count))
}

// MinterStipend records a stipend payment attempt. wei is the amount paid
// and is ignored unless status is "paid".
func MinterStipend(status string, wei float64) {
	if !enabled {
		return
	}
	stipendTotal.WithLabelValues(status).Inc()
	if status == "paid" {
		stipendWeiTotal.Add(wei)
	}
}

// RestrictedTransfer records a marketplace transfer.
func RestrictedTransfer(status string) {
	if !enabled {
		return
	}
	marketTransferTotal.WithLabelValues(status).Inc()
}

// ZoppelSupply sets the current total supply gauge.
func ZoppelSupply(tokens float64) {
	if !enabled {
		return
	}
	zoppelSupply.Set(tokens)
}

// APIError records an error response by its error code.
func APIError(code string) {
	if !enabled {
		return
	}
	apiErrorsTotal.WithLabelValues(code).Inc()
}
