package memoryengine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campuslib/circulation-go/circulation"
)

// CirculationStore is an in-memory implementation of circulation.TxRunner.
//
// One mutex serializes units of work, and every transaction operates on a
// snapshot of the state that is swapped in atomically on success and discarded
// on error, so the all-or-nothing guarantee of the contract holds. It backs
// the command handler tests and is handy for demos; production deployments
// use circulation/postgresengine.
type CirculationStore struct {
	mu    sync.Mutex
	state *state
}

type state struct {
	copies       map[uuid.UUID]circulation.BookCopy
	loans        map[uuid.UUID]circulation.Loan
	reservations map[uuid.UUID]circulation.Reservation
	fines        map[uuid.UUID]circulation.Fine
	receipts     []circulation.Receipt
	letters      []circulation.Letter
	accrualRuns  map[time.Time]bool
}

// NewCirculationStore creates an empty in-memory store.
func NewCirculationStore() *CirculationStore {
	return &CirculationStore{state: newState()}
}

func newState() *state {
	return &state{
		copies:       make(map[uuid.UUID]circulation.BookCopy),
		loans:        make(map[uuid.UUID]circulation.Loan),
		reservations: make(map[uuid.UUID]circulation.Reservation),
		fines:        make(map[uuid.UUID]circulation.Fine),
		accrualRuns:  make(map[time.Time]bool),
	}
}

func (s *state) clone() *state {
	next := newState()

	for id, c := range s.copies {
		next.copies[id] = c
	}
	for id, l := range s.loans {
		next.loans[id] = l
	}
	for id, r := range s.reservations {
		next.reservations[id] = r
	}
	for id, f := range s.fines {
		next.fines[id] = f
	}

	next.receipts = append(next.receipts, s.receipts...)
	next.letters = append(next.letters, s.letters...)

	for day := range s.accrualRuns {
		next.accrualRuns[day] = true
	}

	return next
}

// WithinTx implements circulation.TxRunner. The callback runs against a
// snapshot; returning an error discards every mutation it performed.
func (s *CirculationStore) WithinTx(
	ctx context.Context,
	fn func(ctx context.Context, uow circulation.UnitOfWork) error,
) error {

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()

	if err := fn(ctx, &unitOfWork{state: snapshot}); err != nil {
		return err
	}

	s.state = snapshot

	return nil
}

// Receipts returns the receipts written so far, for inspection in tests.
func (s *CirculationStore) Receipts() []circulation.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]circulation.Receipt(nil), s.state.receipts...)
}

// Letters returns the letters written so far, for inspection in tests.
func (s *CirculationStore) Letters() []circulation.Letter {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]circulation.Letter(nil), s.state.letters...)
}

// unitOfWork implements circulation.UnitOfWork against one state snapshot.
// Row locking is implicit: the store mutex admits one transaction at a time.
type unitOfWork struct {
	state *state
}

// CopyByID implements circulation.CopyStore.
func (u *unitOfWork) CopyByID(_ context.Context, id uuid.UUID) (circulation.BookCopy, error) {
	bookCopy, ok := u.state.copies[id]
	if !ok {
		return circulation.BookCopy{}, circulation.ErrNotFound
	}

	return bookCopy, nil
}

// CopyForUpdate implements circulation.CopyStore.
func (u *unitOfWork) CopyForUpdate(ctx context.Context, id uuid.UUID) (circulation.BookCopy, error) {
	return u.CopyByID(ctx, id)
}

// InsertCopy implements circulation.CopyStore.
func (u *unitOfWork) InsertCopy(_ context.Context, bookCopy circulation.BookCopy) error {
	u.state.copies[bookCopy.ID] = bookCopy
	return nil
}

// UpdateCopyStatus implements circulation.CopyStore.
func (u *unitOfWork) UpdateCopyStatus(_ context.Context, id uuid.UUID, status circulation.CopyStatus) error {
	bookCopy, ok := u.state.copies[id]
	if !ok {
		return circulation.ErrNotFound
	}

	bookCopy.Status = status
	u.state.copies[id] = bookCopy

	return nil
}

// LoanByID implements circulation.LoanStore.
func (u *unitOfWork) LoanByID(_ context.Context, id uuid.UUID) (circulation.Loan, error) {
	loan, ok := u.state.loans[id]
	if !ok {
		return circulation.Loan{}, circulation.ErrNotFound
	}

	return loan, nil
}

// LoanForUpdate implements circulation.LoanStore.
func (u *unitOfWork) LoanForUpdate(ctx context.Context, id uuid.UUID) (circulation.Loan, error) {
	return u.LoanByID(ctx, id)
}

// OpenLoanForCopy implements circulation.LoanStore.
func (u *unitOfWork) OpenLoanForCopy(_ context.Context, copyID uuid.UUID) (*circulation.Loan, error) {
	for _, loan := range u.state.loans {
		if loan.CopyID == copyID && loan.IsOpen() {
			found := loan
			return &found, nil
		}
	}

	return nil, nil
}

// OpenLoanCountForBorrower implements circulation.LoanStore.
func (u *unitOfWork) OpenLoanCountForBorrower(_ context.Context, borrowerID circulation.BorrowerIDString) (int, error) {
	count := 0

	for _, loan := range u.state.loans {
		if loan.BorrowerID == borrowerID && loan.IsOpen() {
			count++
		}
	}

	return count, nil
}

// OpenLoansDueBefore implements circulation.LoanStore.
func (u *unitOfWork) OpenLoansDueBefore(_ context.Context, day time.Time) ([]circulation.Loan, error) {
	loans := make([]circulation.Loan, 0)

	for _, loan := range u.state.loans {
		if loan.IsOpen() && circulation.StartOfDay(loan.DueDate).Before(circulation.StartOfDay(day)) {
			loans = append(loans, loan)
		}
	}

	sort.Slice(loans, func(i, j int) bool {
		return loans[i].DueDate.Before(loans[j].DueDate)
	})

	return loans, nil
}

// InsertLoan implements circulation.LoanStore.
func (u *unitOfWork) InsertLoan(_ context.Context, loan circulation.Loan) error {
	u.state.loans[loan.ID] = loan
	return nil
}

// UpdateLoan implements circulation.LoanStore.
func (u *unitOfWork) UpdateLoan(_ context.Context, loan circulation.Loan) error {
	if _, ok := u.state.loans[loan.ID]; !ok {
		return circulation.ErrNotFound
	}

	u.state.loans[loan.ID] = loan

	return nil
}

// ReservationForUpdate implements circulation.ReservationStore.
func (u *unitOfWork) ReservationForUpdate(_ context.Context, id uuid.UUID) (circulation.Reservation, error) {
	reservation, ok := u.state.reservations[id]
	if !ok {
		return circulation.Reservation{}, circulation.ErrNotFound
	}

	return reservation, nil
}

// ActiveReservationsForCopy implements circulation.ReservationStore.
func (u *unitOfWork) ActiveReservationsForCopy(_ context.Context, copyID uuid.UUID) ([]circulation.Reservation, error) {
	reservations := make([]circulation.Reservation, 0)

	for _, reservation := range u.state.reservations {
		if reservation.CopyID == copyID && reservation.IsActive() {
			reservations = append(reservations, reservation)
		}
	}

	sort.Slice(reservations, func(i, j int) bool {
		return reservations[i].QueuePosition < reservations[j].QueuePosition
	})

	return reservations, nil
}

// ActiveReservationCountForBorrower implements circulation.ReservationStore.
func (u *unitOfWork) ActiveReservationCountForBorrower(_ context.Context, borrowerID circulation.BorrowerIDString) (int, error) {
	count := 0

	for _, reservation := range u.state.reservations {
		if reservation.BorrowerID == borrowerID && reservation.IsActive() {
			count++
		}
	}

	return count, nil
}

// ReadyReservationsPastDeadline implements circulation.ReservationStore.
func (u *unitOfWork) ReadyReservationsPastDeadline(_ context.Context, now time.Time) ([]circulation.Reservation, error) {
	reservations := make([]circulation.Reservation, 0)

	for _, reservation := range u.state.reservations {
		if reservation.IsReadyPastDeadline(now) {
			reservations = append(reservations, reservation)
		}
	}

	sort.Slice(reservations, func(i, j int) bool {
		return reservations[i].PickupDeadline.Before(*reservations[j].PickupDeadline)
	})

	return reservations, nil
}

// InsertReservation implements circulation.ReservationStore.
func (u *unitOfWork) InsertReservation(_ context.Context, reservation circulation.Reservation) error {
	u.state.reservations[reservation.ID] = reservation
	return nil
}

// UpdateReservation implements circulation.ReservationStore.
func (u *unitOfWork) UpdateReservation(_ context.Context, reservation circulation.Reservation) error {
	if _, ok := u.state.reservations[reservation.ID]; !ok {
		return circulation.ErrNotFound
	}

	u.state.reservations[reservation.ID] = reservation

	return nil
}

// FineByID implements circulation.FineStore.
func (u *unitOfWork) FineByID(_ context.Context, id uuid.UUID) (circulation.Fine, error) {
	fine, ok := u.state.fines[id]
	if !ok {
		return circulation.Fine{}, circulation.ErrNotFound
	}

	return fine, nil
}

// FineForUpdate implements circulation.FineStore.
func (u *unitOfWork) FineForUpdate(ctx context.Context, id uuid.UUID) (circulation.Fine, error) {
	return u.FineByID(ctx, id)
}

// OpenFineForLoan implements circulation.FineStore.
func (u *unitOfWork) OpenFineForLoan(_ context.Context, loanID uuid.UUID, reason circulation.FineReason) (*circulation.Fine, error) {
	for _, fine := range u.state.fines {
		if fine.LoanID != nil && *fine.LoanID == loanID && fine.Reason == reason && fine.IsOpen() {
			found := fine
			return &found, nil
		}
	}

	return nil, nil
}

// OpenFinesForBorrower implements circulation.FineStore.
func (u *unitOfWork) OpenFinesForBorrower(_ context.Context, borrowerID circulation.BorrowerIDString) ([]circulation.Fine, error) {
	fines := make([]circulation.Fine, 0)

	for _, fine := range u.state.fines {
		if fine.BorrowerID == borrowerID && fine.IsOpen() {
			fines = append(fines, fine)
		}
	}

	sort.Slice(fines, func(i, j int) bool {
		return fines[i].ID.String() < fines[j].ID.String()
	})

	return fines, nil
}

// InsertFine implements circulation.FineStore.
func (u *unitOfWork) InsertFine(_ context.Context, fine circulation.Fine) error {
	u.state.fines[fine.ID] = fine
	return nil
}

// UpdateFine implements circulation.FineStore.
func (u *unitOfWork) UpdateFine(_ context.Context, fine circulation.Fine) error {
	if _, ok := u.state.fines[fine.ID]; !ok {
		return circulation.ErrNotFound
	}

	u.state.fines[fine.ID] = fine

	return nil
}

// InsertReceipt implements circulation.AuditStore.
func (u *unitOfWork) InsertReceipt(_ context.Context, receipt circulation.Receipt) error {
	u.state.receipts = append(u.state.receipts, receipt)
	return nil
}

// InsertLetter implements circulation.AuditStore.
func (u *unitOfWork) InsertLetter(_ context.Context, letter circulation.Letter) error {
	u.state.letters = append(u.state.letters, letter)
	return nil
}

// AccrualRanOn implements circulation.AccrualStore.
func (u *unitOfWork) AccrualRanOn(_ context.Context, day time.Time) (bool, error) {
	return u.state.accrualRuns[circulation.StartOfDay(day)], nil
}

// MarkAccrualRun implements circulation.AccrualStore.
func (u *unitOfWork) MarkAccrualRun(_ context.Context, day time.Time) error {
	u.state.accrualRuns[circulation.StartOfDay(day)] = true
	return nil
}
