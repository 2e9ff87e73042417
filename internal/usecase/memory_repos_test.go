package usecase

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"pasarloka/internal/domain/entity"
	"pasarloka/internal/domain/status"
	"pasarloka/pkg/errors"
)

// In-memory repository fakes. They copy entities on read and write so a
// usecase mutating its local struct cannot leak state into the "remote" side,
// and they support injected faults for the coordination tests.

type memPurchaseRepo struct {
	mu        sync.Mutex
	purchases map[string]entity.Purchase
	byOffer   map[string]string
	logs      []entity.PurchaseLog

	failUpdates int // reject the next N Update calls
	createCalls int
}

func newMemPurchaseRepo() *memPurchaseRepo {
	return &memPurchaseRepo{
		purchases: make(map[string]entity.Purchase),
		byOffer:   make(map[string]string),
	}
}

func (r *memPurchaseRepo) Create(ctx context.Context, purchase *entity.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if purchase.OfferMessageID != "" {
		if _, taken := r.byOffer[purchase.OfferMessageID]; taken {
			return errors.AlreadyExists("Purchase")
		}
	}
	if purchase.ID == "" {
		purchase.ID = uuid.New().String()
	}
	r.purchases[purchase.ID] = *purchase
	if purchase.OfferMessageID != "" {
		r.byOffer[purchase.OfferMessageID] = purchase.ID
	}
	return nil
}

func (r *memPurchaseRepo) GetByID(ctx context.Context, id string) (*entity.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.purchases[id]
	if !ok {
		return nil, errors.NotFound("Purchase", nil)
	}
	cp := p
	return &cp, nil
}

func (r *memPurchaseRepo) GetByOfferMessageID(ctx context.Context, offerMessageID string) (*entity.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byOffer[offerMessageID]
	if !ok {
		return nil, errors.NotFound("Purchase", nil)
	}
	cp := r.purchases[id]
	return &cp, nil
}

func (r *memPurchaseRepo) Update(ctx context.Context, purchase *entity.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdates > 0 {
		r.failUpdates--
		return errors.Internal("injected purchase update fault", nil)
	}
	if _, ok := r.purchases[purchase.ID]; !ok {
		return errors.NotFound("Purchase", nil)
	}
	r.purchases[purchase.ID] = *purchase
	return nil
}

func (r *memPurchaseRepo) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]*entity.Purchase, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Purchase
	for id := range r.purchases {
		cp := r.purchases[id]
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *memPurchaseRepo) ListByUserID(ctx context.Context, userID, role string, st status.PurchaseStatus, limit, offset int) ([]*entity.Purchase, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Purchase
	for id := range r.purchases {
		p := r.purchases[id]
		if role == "seller" && p.SellerID != userID {
			continue
		}
		if role != "seller" && p.BuyerID != userID {
			continue
		}
		if st != "" && p.Status != st {
			continue
		}
		cp := p
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *memPurchaseRepo) CreateLog(ctx context.Context, log *entity.PurchaseLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	r.logs = append(r.logs, *log)
	return nil
}

func (r *memPurchaseRepo) ListLogsByPurchaseID(ctx context.Context, purchaseID string) ([]*entity.PurchaseLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.PurchaseLog
	for i := range r.logs {
		if r.logs[i].PurchaseID == purchaseID {
			cp := r.logs[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memPurchaseRepo) status(id string) status.PurchaseStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.purchases[id].Status
}

type memPaymentRepo struct {
	mu       sync.Mutex
	payments map[string]entity.Payment

	// Fault injection: let succeedFirst Update calls through, then reject
	// the next failUpdates calls.
	succeedFirst int
	failUpdates  int
	updateStates []status.PaymentStatus // status carried by each Update attempt, accepted or not
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: make(map[string]entity.Payment)}
}

func (r *memPaymentRepo) Create(ctx context.Context, payment *entity.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	r.payments[payment.ID] = *payment
	return nil
}

func (r *memPaymentRepo) GetByID(ctx context.Context, id string) (*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, errors.NotFound("Payment", nil)
	}
	cp := p
	return &cp, nil
}

func (r *memPaymentRepo) GetByPurchaseID(ctx context.Context, purchaseID string) (*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.payments {
		if r.payments[id].PurchaseID == purchaseID {
			cp := r.payments[id]
			return &cp, nil
		}
	}
	return nil, errors.NotFound("Payment", nil)
}

func (r *memPaymentRepo) GetByGatewayRef(ctx context.Context, gatewayRef string) (*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.payments {
		if r.payments[id].GatewayRef == gatewayRef {
			cp := r.payments[id]
			return &cp, nil
		}
	}
	return nil, errors.NotFound("Payment", nil)
}

func (r *memPaymentRepo) Update(ctx context.Context, payment *entity.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateStates = append(r.updateStates, payment.Status)
	if r.succeedFirst > 0 {
		r.succeedFirst--
	} else if r.failUpdates > 0 {
		r.failUpdates--
		return errors.Internal("injected payment update fault", nil)
	}
	if _, ok := r.payments[payment.ID]; !ok {
		return errors.NotFound("Payment", nil)
	}
	r.payments[payment.ID] = *payment
	return nil
}

func (r *memPaymentRepo) status(id string) status.PaymentStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payments[id].Status
}

func (r *memPaymentRepo) needsReconcile(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payments[id].NeedsReconcile
}

type memComplaintRepo struct {
	mu         sync.Mutex
	complaints map[string]entity.Complaint
	returns    map[string]entity.Return
}

func newMemComplaintRepo() *memComplaintRepo {
	return &memComplaintRepo{
		complaints: make(map[string]entity.Complaint),
		returns:    make(map[string]entity.Return),
	}
}

func (r *memComplaintRepo) Create(ctx context.Context, complaint *entity.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if complaint.ID == "" {
		complaint.ID = uuid.New().String()
	}
	r.complaints[complaint.ID] = *complaint
	return nil
}

func (r *memComplaintRepo) GetByID(ctx context.Context, id string) (*entity.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.complaints[id]
	if !ok {
		return nil, errors.NotFound("Complaint", nil)
	}
	cp := c
	return &cp, nil
}

func (r *memComplaintRepo) GetActiveByPurchaseID(ctx context.Context, purchaseID string) (*entity.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.complaints {
		c := r.complaints[id]
		if c.PurchaseID == purchaseID && status.IsComplaintActive(c.Status) {
			cp := c
			return &cp, nil
		}
	}
	return nil, errors.NotFound("Complaint", nil)
}

func (r *memComplaintRepo) Update(ctx context.Context, complaint *entity.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.complaints[complaint.ID]; !ok {
		return errors.NotFound("Complaint", nil)
	}
	r.complaints[complaint.ID] = *complaint
	return nil
}

func (r *memComplaintRepo) ListByStatus(ctx context.Context, st string, limit, offset int) ([]*entity.Complaint, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Complaint
	for id := range r.complaints {
		c := r.complaints[id]
		if st != "" && string(c.Status) != st {
			continue
		}
		cp := c
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *memComplaintRepo) CreateReturn(ctx context.Context, ret *entity.Return) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ret.ID == "" {
		ret.ID = uuid.New().String()
	}
	r.returns[ret.ID] = *ret
	return nil
}

func (r *memComplaintRepo) GetReturnByID(ctx context.Context, id string) (*entity.Return, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret, ok := r.returns[id]
	if !ok {
		return nil, errors.NotFound("Return", nil)
	}
	cp := ret
	return &cp, nil
}

func (r *memComplaintRepo) UpdateReturn(ctx context.Context, ret *entity.Return) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.returns[ret.ID]; !ok {
		return errors.NotFound("Return", nil)
	}
	r.returns[ret.ID] = *ret
	return nil
}

type memProductRepo struct {
	mu       sync.Mutex
	products map[string]entity.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[string]entity.Product)}
}

func (r *memProductRepo) Create(ctx context.Context, product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	r.products[product.ID] = *product
	return nil
}

func (r *memProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, errors.NotFound("Product", nil)
	}
	cp := p
	return &cp, nil
}

func (r *memProductRepo) Update(ctx context.Context, product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[product.ID]; !ok {
		return errors.NotFound("Product", nil)
	}
	r.products[product.ID] = *product
	return nil
}

func (r *memProductRepo) SoftDelete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return errors.NotFound("Product", nil)
	}
	p.Status = "inactive"
	r.products[id] = p
	return nil
}

func (r *memProductRepo) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]*entity.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Product
	for id := range r.products {
		cp := r.products[id]
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *memProductRepo) ListBySellerID(ctx context.Context, sellerID string, limit, offset int) ([]*entity.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Product
	for id := range r.products {
		if r.products[id].SellerID == sellerID {
			cp := r.products[id]
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

type memUserRepo struct {
	mu        sync.Mutex
	users     map[string]entity.User
	addresses map[string]entity.Address
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users:     make(map[string]entity.User),
		addresses: make(map[string]entity.Address),
	}
}

func (r *memUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	cp := u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.users {
		if r.users[id].Email == email {
			cp := r.users[id]
			return &cp, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

func (r *memUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return errors.NotFound("User", nil)
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) CreateAddress(ctx context.Context, address *entity.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if address.ID == "" {
		address.ID = uuid.New().String()
	}
	r.addresses[address.ID] = *address
	return nil
}

func (r *memUserRepo) GetAddressByID(ctx context.Context, id string) (*entity.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.addresses[id]
	if !ok {
		return nil, errors.NotFound("Address", nil)
	}
	cp := a
	return &cp, nil
}

func (r *memUserRepo) ListAddressesByUserID(ctx context.Context, userID string) ([]*entity.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Address
	for id := range r.addresses {
		if r.addresses[id].UserID == userID {
			cp := r.addresses[id]
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memChatRepo struct {
	mu       sync.Mutex
	chats    map[string]entity.Chat
	messages map[string][]entity.Message // chatID -> stream order
}

func newMemChatRepo() *memChatRepo {
	return &memChatRepo{
		chats:    make(map[string]entity.Chat),
		messages: make(map[string][]entity.Message),
	}
}

func (r *memChatRepo) Create(ctx context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	r.chats[chat.ID] = *chat
	return nil
}

func (r *memChatRepo) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	cp := c
	return &cp, nil
}

func (r *memChatRepo) GetByParticipants(ctx context.Context, buyerID, sellerID, productID string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.chats {
		c := r.chats[id]
		if c.BuyerID == buyerID && c.SellerID == sellerID && c.ProductID == productID {
			cp := c
			return &cp, nil
		}
	}
	return nil, errors.NotFound("Chat", nil)
}

func (r *memChatRepo) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Chat
	for id := range r.chats {
		c := r.chats[id]
		if c.HasParticipant(userID) {
			cp := c
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memChatRepo) Update(ctx context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chats[chat.ID]; !ok {
		return errors.NotFound("Chat", nil)
	}
	r.chats[chat.ID] = *chat
	return nil
}

func (r *memChatRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	r.messages[message.ChatID] = append(r.messages[message.ChatID], *message)
	return nil
}

func (r *memChatRepo) GetMessageByID(ctx context.Context, chatID, messageID string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages[chatID] {
		if r.messages[chatID][i].ID == messageID {
			cp := r.messages[chatID][i]
			return &cp, nil
		}
	}
	return nil, errors.NotFound("Message", nil)
}

func (r *memChatRepo) GetMessagesByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Message
	for i := range r.messages[chatID] {
		cp := r.messages[chatID][i]
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *memChatRepo) UpdateMessage(ctx context.Context, chatID string, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages[chatID] {
		if r.messages[chatID][i].ID == message.ID {
			r.messages[chatID][i] = *message
			return nil
		}
	}
	return errors.NotFound("Message", nil)
}

func (r *memChatRepo) UpdateMessageReadStatus(ctx context.Context, chatID, messageID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages[chatID] {
		if r.messages[chatID][i].ID == messageID {
			m := r.messages[chatID][i]
			for _, u := range m.ReadBy {
				if u == userID {
					return nil
				}
			}
			m.ReadBy = append(m.ReadBy, userID)
			r.messages[chatID][i] = m
			return nil
		}
	}
	return errors.NotFound("Message", nil)
}

func (r *memChatRepo) CreateOfferMessage(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages[message.ChatID] {
		m := r.messages[message.ChatID][i]
		if m.Kind == entity.MessageOffer && m.SenderID == message.SenderID && m.Offer != nil && m.Offer.Status == status.OfferPending {
			return errors.OfferAlreadyPending(message.ChatID)
		}
	}
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	r.messages[message.ChatID] = append(r.messages[message.ChatID], *message)
	return nil
}

func (r *memChatRepo) GetPendingOfferByBuyer(ctx context.Context, chatID, buyerID string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages[chatID] {
		m := r.messages[chatID][i]
		if m.Kind == entity.MessageOffer && m.SenderID == buyerID && m.Offer != nil && m.Offer.Status == status.OfferPending {
			cp := m
			return &cp, nil
		}
	}
	return nil, errors.NotFound("Offer", nil)
}
