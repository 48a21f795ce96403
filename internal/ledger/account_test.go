package ledger

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestBankAccountCredit(t *testing.T) {
	acc := BankAccount{Balance: 10}
	if err := acc.Credit(5); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if acc.Balance != 15 {
		t.Fatalf("expected 15, got %d", acc.Balance)
	}

	full := BankAccount{Balance: math.MaxUint64}
	if err := full.Credit(1); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if full.Balance != math.MaxUint64 {
		t.Fatalf("balance changed on overflow: %d", full.Balance)
	}
	if err := full.Credit(0); err != nil {
		t.Fatalf("crediting zero at max must succeed: %v", err)
	}
}

func TestBankAccountDebit(t *testing.T) {
	acc := BankAccount{Balance: 10}
	if err := acc.Debit(11); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if acc.Balance != 10 {
		t.Fatalf("balance changed on failed debit: %d", acc.Balance)
	}
	if err := acc.Debit(10); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if acc.Balance != 0 {
		t.Fatalf("expected 0, got %d", acc.Balance)
	}
}

func TestCheckedArithmetic(t *testing.T) {
	if _, err := AddUint64(math.MaxUint64, 1); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("add: expected overflow, got %v", err)
	}
	if _, err := SubUint64(0, 1); !errors.Is(err, ErrArithmeticUnderflow) {
		t.Fatalf("sub: expected underflow, got %v", err)
	}
	if _, err := MulUint64(math.MaxUint64/2+1, 2); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("mul: expected overflow, got %v", err)
	}
	if v, err := PowUint64(10, 19); err != nil || v != 10_000_000_000_000_000_000 {
		t.Fatalf("pow 10^19: %d, %v", v, err)
	}
	if _, err := PowUint64(10, 20); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("pow 10^20: expected overflow, got %v", err)
	}
	if v, err := PowUint64(10, 0); err != nil || v != 1 {
		t.Fatalf("pow 10^0: %d, %v", v, err)
	}
}

func TestBankAccountLayout(t *testing.T) {
	acc := BankAccount{ID: []byte("ab"), Balance: 5}
	data, err := acc.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := append([]byte{}, AccountDiscriminator[:]...)
	want = append(want, 2, 0, 0, 0, 'a', 'b', 5, 0, 0, 0, 0, 0, 0, 0)
	if !bytes.Equal(data, want) {
		t.Fatalf("layout mismatch:\n got %x\nwant %x", data, want)
	}

	var decoded BankAccount
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(decoded.ID) != "ab" || decoded.Balance != 5 {
		t.Fatalf("unexpected decode %+v", decoded)
	}
}

func TestBankAccountUnmarshalRejectsCorruptData(t *testing.T) {
	good, _ := BankAccount{ID: []byte("abc"), Balance: 1}.MarshalBinary()

	cases := map[string][]byte{
		"short":               good[:10],
		"wrong discriminator": append([]byte{0, 0, 0, 0, 0, 0, 0, 0}, good[8:]...),
		"length mismatch":     append(append([]byte{}, good...), 0xff),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			var acc BankAccount
			if err := acc.UnmarshalBinary(data); !errors.Is(err, ErrCorruptRecord) {
				t.Fatalf("expected corrupt record, got %v", err)
			}
		})
	}
}
