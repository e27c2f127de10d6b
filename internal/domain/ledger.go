package domain

// MoneyTransferrer moves an amount between two wallets. The debit runs
// before the deposit; if the debit fails the destination wallet is never
// touched, so the amount leaving one wallet always equals the amount
// entering the other.
type MoneyTransferrer struct{}

// Transfer debits `from` and deposits into `to` by the exact amount.
func (MoneyTransferrer) Transfer(from, to *Wallet, amount Money) error {
	if err := from.Debit(amount); err != nil {
		return err
	}
	to.Deposit(amount)
	return nil
}
