package escrow

// Checked uint64 arithmetic. Fee and balance math must detect overflow and
// abort the whole operation rather than wrap.

func checkedMul(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	p := a * b
	if p/a != b {
		return 0, ErrMathOverflow
	}
	return p, nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	s := a + b
	if s < a {
		return 0, ErrMathOverflow
	}
	return s, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrMathOverflow
	}
	return a - b, nil
}

// setupFee splits a deposit into the setup fee (FeeBPS basis points, integer
// division truncating) and the remaining trading balance.
func setupFee(amount uint64) (fee, tradingBalance uint64, err error) {
	scaled, err := checkedMul(amount, FeeBPS)
	if err != nil {
		return 0, 0, err
	}
	fee = scaled / 10_000
	tradingBalance, err = checkedSub(amount, fee)
	if err != nil {
		return 0, 0, err
	}
	return fee, tradingBalance, nil
}

// expiryAt computes the session deadline from the funding time, guarding the
// signed addition.
func expiryAt(fundedAt int64, durationDays uint16) (int64, error) {
	deadline := fundedAt + int64(durationDays)*secondsPerDay
	if deadline < fundedAt {
		return 0, ErrMathOverflow
	}
	return deadline, nil
}
