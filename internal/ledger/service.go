// Package ledger keeps each identity's accounts, transactions and loans, and the
// balance of every account in step with the transactions posted against it.
//
// Mutators capture the owner's collections when they are issued and write a full
// replacement when they complete. Two mutators in flight for the same owner can
// therefore lose one of the updates; callers that need both must await the first
// before issuing the second.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fintrack/fintrack/internal/async"
	"github.com/fintrack/fintrack/internal/countries"
	"github.com/fintrack/fintrack/internal/identity"
	"github.com/fintrack/fintrack/internal/kvstore"
	"github.com/fintrack/fintrack/internal/logging"
	"github.com/fintrack/fintrack/internal/notification"
)

// Slots holding owner id -> ordered sequence.
const (
	AccountsSlot     = "fintrack.accounts"
	TransactionsSlot = "fintrack.transactions"
	LoansSlot        = "fintrack.loans"
)

// Session resolves the identity a call is made on behalf of.
type Session interface {
	Current() (identity.Identity, bool)
}

// Options tunes a Service.
type Options struct {
	Delay    time.Duration
	Notifier notification.Notifier
	Logger   *slog.Logger
	Now      func() time.Time
}

// Service is the ledger store.
type Service struct {
	store *kvstore.Store
	opts  Options
	// mu serialises the read-modify-write of a whole slot so owners never clobber each other.
	mu sync.Mutex
}

// NewService creates a ledger persisting into store.
func NewService(store *kvstore.Store, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Notifier == nil {
		opts.Notifier = notification.NewLoggerNotifier(opts.Logger)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{store: store, opts: opts}
}

// AddAccount appends a new account to the owner's collection.
func (s *Service) AddAccount(ctx context.Context, sess Session, in AccountInput) *async.Task[Account] {
	who, ok := current(sess)
	if !ok {
		return async.Failed[Account](ErrUnauthenticated)
	}
	if strings.TrimSpace(in.Name) == "" {
		return async.Failed[Account](fmt.Errorf("%w: account name is required", ErrInvalid))
	}
	if in.Kind == "" {
		in.Kind = AccountChecking
	}
	if !in.Kind.Valid() {
		return async.Failed[Account](fmt.Errorf("%w: account kind %q", ErrInvalid, in.Kind))
	}

	accounts, err := loadOwner[Account](ctx, s.store, AccountsSlot, who.ID)
	if err != nil {
		return async.Failed[Account](err)
	}

	ctx = context.WithoutCancel(ctx)
	return async.Go(s.opts.Delay, func() (Account, error) {
		acct := Account{
			ID:             uuid.NewString(),
			OwnerID:        who.ID,
			Name:           strings.TrimSpace(in.Name),
			Kind:           in.Kind,
			Balance:        in.Balance,
			Currency:       currencyFor(in.Currency, who),
			Color:          in.Color,
			LastFourDigits: in.LastFourDigits,
			IsDefault:      in.IsDefault,
		}
		accounts = append(accounts, acct)
		if err := storeOwner(ctx, s, AccountsSlot, who.ID, accounts); err != nil {
			return Account{}, err
		}
		s.opts.Logger.Info("account added", slog.String("owner_id", who.ID), slog.String("account_id", acct.ID))
		return acct, nil
	})
}

// UpdateAccount overwrites the provided fields of an account.
func (s *Service) UpdateAccount(ctx context.Context, sess Session, id string, patch AccountPatch) *async.Task[Account] {
	who, ok := current(sess)
	if !ok {
		return async.Failed[Account](ErrUnauthenticated)
	}
	if patch.Kind != nil && !patch.Kind.Valid() {
		return async.Failed[Account](fmt.Errorf("%w: account kind %q", ErrInvalid, *patch.Kind))
	}

	accounts, err := loadOwner[Account](ctx, s.store, AccountsSlot, who.ID)
	if err != nil {
		return async.Failed[Account](err)
	}

	ctx = context.WithoutCancel(ctx)
	return async.Go(s.opts.Delay, func() (Account, error) {
		idx := indexOf(accounts, func(a Account) bool { return a.ID == id })
		if idx < 0 {
			return Account{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
		}
		patch.apply(&accounts[idx])
		if err := storeOwner(ctx, s, AccountsSlot, who.ID, accounts); err != nil {
			return Account{}, err
		}
		s.opts.Logger.Info("account updated", slog.String("owner_id", who.ID), slog.String("account_id", id))
		return accounts[idx], nil
	})
}

// DeleteAccount removes an account and every transaction posted against it.
// Deleting an unknown id is a no-op.
func (s *Service) DeleteAccount(ctx context.Context, sess Session, id string) *async.Task[struct{}] {
	who, ok := current(sess)
	if !ok {
		return async.Failed[struct{}](ErrUnauthenticated)
	}

	accounts, err := loadOwner[Account](ctx, s.store, AccountsSlot, who.ID)
	if err != nil {
		return async.Failed[struct{}](err)
	}
	txs, err := loadOwner[Transaction](ctx, s.store, TransactionsSlot, who.ID)
	if err != nil {
		return async.Failed[struct{}](err)
	}

	ctx = context.WithoutCancel(ctx)
	return async.Go(s.opts.Delay, func() (struct{}, error) {
		accounts = without(accounts, func(a Account) bool { return a.ID == id })
		before := len(txs)
		txs = without(txs, func(t Transaction) bool { return t.AccountID == id })

		if err := storeOwner(ctx, s, AccountsSlot, who.ID, accounts); err != nil {
			return struct{}{}, err
		}
		if err := storeOwner(ctx, s, TransactionsSlot, who.ID, txs); err != nil {
			return struct{}{}, err
		}
		s.opts.Logger.Info("account deleted",
			slog.String("owner_id", who.ID),
			slog.String("account_id", id),
			slog.Int("transactions_removed", before-len(txs)),
		)
		return struct{}{}, nil
	})
}

// AddTransaction records a transaction, newest first, and adds its amount to the
// referenced account's balance. The amount's sign follows the kind. The account
// must exist in the owner's collection.
func (s *Service) AddTransaction(ctx context.Context, sess Session, in TransactionInput) *async.Task[Transaction] {
	who, ok := current(sess)
	if !ok {
		return async.Failed[Transaction](ErrUnauthenticated)
	}
	if in.Category == "" {
		in.Category = CategoryOther
	}
	switch {
	case in.AccountID == "":
		return async.Failed[Transaction](fmt.Errorf("%w: account id is required", ErrInvalid))
	case !in.Kind.Valid():
		return async.Failed[Transaction](fmt.Errorf("%w: transaction kind %q", ErrInvalid, in.Kind))
	case !in.Category.Valid():
		return async.Failed[Transaction](fmt.Errorf("%w: category %q", ErrInvalid, in.Category))
	case in.Amount.IsZero():
		return async.Failed[Transaction](fmt.Errorf("%w: amount must not be zero", ErrInvalid))
	}
	amount := in.Amount.Abs()
	if in.Kind == Expense {
		amount = amount.Neg()
	}

	accounts, err := loadOwner[Account](ctx, s.store, AccountsSlot, who.ID)
	if err != nil {
		return async.Failed[Transaction](err)
	}
	txs, err := loadOwner[Transaction](ctx, s.store, TransactionsSlot, who.ID)
	if err != nil {
		return async.Failed[Transaction](err)
	}

	ctx = context.WithoutCancel(ctx)
	return async.Go(s.opts.Delay, func() (Transaction, error) {
		idx := indexOf(accounts, func(a Account) bool { return a.ID == in.AccountID })
		if idx < 0 {
			return Transaction{}, fmt.Errorf("account %s: %w", in.AccountID, ErrNotFound)
		}

		date := in.Date
		if date.IsZero() {
			date = s.opts.Now()
		}
		tx := Transaction{
			ID:          uuid.NewString(),
			OwnerID:     who.ID,
			AccountID:   in.AccountID,
			Amount:      amount,
			Description: strings.TrimSpace(in.Description),
			Category:    in.Category,
			Date:        date,
			Kind:        in.Kind,
		}
		txs = append([]Transaction{tx}, txs...)
		prior := accounts[idx].Balance
		accounts[idx].Balance = prior.Add(amount)

		if err := storeOwner(ctx, s, AccountsSlot, who.ID, accounts); err != nil {
			return Transaction{}, err
		}
		if err := storeOwner(ctx, s, TransactionsSlot, who.ID, txs); err != nil {
			accounts[idx].Balance = prior
			if rerr := storeOwner(ctx, s, AccountsSlot, who.ID, accounts); rerr != nil {
				s.opts.Logger.Error("restore balance",
					slog.String("owner_id", who.ID),
					slog.String("account_id", in.AccountID),
					slog.Any("error", rerr),
				)
			}
			return Transaction{}, err
		}

		s.opts.Logger.Info("transaction posted",
			slog.String("owner_id", who.ID),
			slog.String("transaction_id", tx.ID),
			slog.String("account_id", tx.AccountID),
			slog.String("amount", tx.Amount.String()),
		)
		s.notify(ctx, notification.Message{
			Kind:        notification.KindTransactionPosted,
			Destination: who.ID,
			Body: fmt.Sprintf("%s %s on %s, balance %s",
				tx.Description,
				countries.FormatMoney(tx.Amount, accounts[idx].Currency),
				accounts[idx].Name,
				countries.FormatMoney(accounts[idx].Balance, accounts[idx].Currency),
			),
		})
		return tx, nil
	})
}

// ApplyLoan appends a loan to the owner's collection. A zero balance starts at the principal.
func (s *Service) ApplyLoan(ctx context.Context, sess Session, in LoanInput) *async.Task[Loan] {
	who, ok := current(sess)
	if !ok {
		return async.Failed[Loan](ErrUnauthenticated)
	}
	if strings.TrimSpace(in.Name) == "" {
		return async.Failed[Loan](fmt.Errorf("%w: loan name is required", ErrInvalid))
	}
	if !in.Principal.IsPositive() {
		return async.Failed[Loan](fmt.Errorf("%w: principal must be positive", ErrInvalid))
	}

	loans, err := loadOwner[Loan](ctx, s.store, LoansSlot, who.ID)
	if err != nil {
		return async.Failed[Loan](err)
	}

	ctx = context.WithoutCancel(ctx)
	return async.Go(s.opts.Delay, func() (Loan, error) {
		loan := Loan{
			ID:             uuid.NewString(),
			OwnerID:        who.ID,
			Name:           strings.TrimSpace(in.Name),
			Principal:      in.Principal,
			Balance:        in.Balance,
			Purpose:        in.Purpose,
			DurationLabel:  in.DurationLabel,
			APR:            in.APR,
			NextPaymentDue: in.NextPaymentDue,
			Currency:       currencyFor(in.Currency, who),
		}
		if loan.Balance.IsZero() {
			loan.Balance = loan.Principal
		}
		loans = append(loans, loan)
		if err := storeOwner(ctx, s, LoansSlot, who.ID, loans); err != nil {
			return Loan{}, err
		}

		s.opts.Logger.Info("loan applied", slog.String("owner_id", who.ID), slog.String("loan_id", loan.ID))
		s.notify(ctx, notification.Message{
			Kind:        notification.KindLoanApplied,
			Destination: who.ID,
			Body: fmt.Sprintf("%s for %s at %s%% APR",
				loan.Name, countries.FormatMoney(loan.Principal, loan.Currency), loan.APR.StringFixed(2)),
		})
		return loan, nil
	})
}

// UpdateLoan overwrites the provided fields of a loan.
func (s *Service) UpdateLoan(ctx context.Context, sess Session, id string, patch LoanPatch) *async.Task[Loan] {
	who, ok := current(sess)
	if !ok {
		return async.Failed[Loan](ErrUnauthenticated)
	}

	loans, err := loadOwner[Loan](ctx, s.store, LoansSlot, who.ID)
	if err != nil {
		return async.Failed[Loan](err)
	}

	ctx = context.WithoutCancel(ctx)
	return async.Go(s.opts.Delay, func() (Loan, error) {
		idx := indexOf(loans, func(l Loan) bool { return l.ID == id })
		if idx < 0 {
			return Loan{}, fmt.Errorf("loan %s: %w", id, ErrNotFound)
		}
		patch.apply(&loans[idx])
		if err := storeOwner(ctx, s, LoansSlot, who.ID, loans); err != nil {
			return Loan{}, err
		}
		s.opts.Logger.Info("loan updated", slog.String("owner_id", who.ID), slog.String("loan_id", id))
		return loans[idx], nil
	})
}

// DeleteLoan removes a loan. Deleting an unknown id is a no-op.
func (s *Service) DeleteLoan(ctx context.Context, sess Session, id string) *async.Task[struct{}] {
	who, ok := current(sess)
	if !ok {
		return async.Failed[struct{}](ErrUnauthenticated)
	}

	loans, err := loadOwner[Loan](ctx, s.store, LoansSlot, who.ID)
	if err != nil {
		return async.Failed[struct{}](err)
	}

	ctx = context.WithoutCancel(ctx)
	return async.Go(s.opts.Delay, func() (struct{}, error) {
		loans = without(loans, func(l Loan) bool { return l.ID == id })
		if err := storeOwner(ctx, s, LoansSlot, who.ID, loans); err != nil {
			return struct{}{}, err
		}
		s.opts.Logger.Info("loan deleted", slog.String("owner_id", who.ID), slog.String("loan_id", id))
		return struct{}{}, nil
	})
}

// Accounts returns the session owner's accounts, or none without a session.
func (s *Service) Accounts(ctx context.Context, sess Session) ([]Account, error) {
	return view(ctx, s.store, AccountsSlot, sess, func(a Account) string { return a.OwnerID })
}

// Transactions returns the session owner's transactions, newest first.
func (s *Service) Transactions(ctx context.Context, sess Session) ([]Transaction, error) {
	return view(ctx, s.store, TransactionsSlot, sess, func(t Transaction) string { return t.OwnerID })
}

// Loans returns the session owner's loans.
func (s *Service) Loans(ctx context.Context, sess Session) ([]Loan, error) {
	return view(ctx, s.store, LoansSlot, sess, func(l Loan) string { return l.OwnerID })
}

// TransactionsForAccount returns the owner's transactions posted against accountID.
func (s *Service) TransactionsForAccount(ctx context.Context, sess Session, accountID string) ([]Transaction, error) {
	txs, err := s.Transactions(ctx, sess)
	if err != nil {
		return nil, err
	}
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if err := s.opts.Notifier.Send(ctx, msg); err != nil {
		s.opts.Logger.Warn("notification failed", slog.String("kind", msg.Kind), slog.Any("error", err))
	}
}

func current(sess Session) (identity.Identity, bool) {
	if sess == nil {
		return identity.Identity{}, false
	}
	return sess.Current()
}

func currencyFor(explicit string, who identity.Identity) string {
	if c := strings.ToUpper(strings.TrimSpace(explicit)); c != "" {
		return c
	}
	return countries.CurrencyFor(who.Country)
}

// loadOwner returns a private copy of the owner's sequence in slot.
func loadOwner[T any](ctx context.Context, store *kvstore.Store, slot, owner string) ([]T, error) {
	all, err := kvstore.Read(ctx, store, slot, map[string][]T{})
	if err != nil {
		return nil, err
	}
	seq := all[owner]
	out := make([]T, len(seq))
	copy(out, seq)
	return out, nil
}

// storeOwner replaces the owner's sequence in slot, leaving other owners untouched.
func storeOwner[T any](ctx context.Context, s *Service, slot, owner string, seq []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := kvstore.Read(ctx, s.store, slot, map[string][]T{})
	if err != nil {
		return err
	}
	if all == nil {
		all = map[string][]T{}
	}
	all[owner] = seq
	return kvstore.Write(ctx, s.store, slot, all)
}

func view[T any](ctx context.Context, store *kvstore.Store, slot string, sess Session, ownerOf func(T) string) ([]T, error) {
	who, ok := current(sess)
	if !ok {
		return []T{}, nil
	}
	seq, err := loadOwner[T](ctx, store, slot, who.ID)
	if err != nil {
		return nil, err
	}
	out := seq[:0]
	for _, item := range seq {
		if ownerOf(item) == who.ID {
			out = append(out, item)
		}
	}
	return out, nil
}

func indexOf[T any](seq []T, match func(T) bool) int {
	for i, item := range seq {
		if match(item) {
			return i
		}
	}
	return -1
}

func without[T any](seq []T, match func(T) bool) []T {
	out := make([]T, 0, len(seq))
	for _, item := range seq {
		if !match(item) {
			out = append(out, item)
		}
	}
	return out
}
