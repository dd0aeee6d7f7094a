package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/niksmo/shop-assistant/internal/core/domain"
	"github.com/niksmo/shop-assistant/internal/core/fusion"
	"github.com/niksmo/shop-assistant/internal/metrics"
)

const chatProductLimit = 5

const (
	ReplyCancelFailed  = "Failed to cancel order. Please check your details and try again."
	ReplyCancelExample = `Please provide your email and order ID to cancel (e.g. "Cancel order 66abc123 for john@example.com").`
	ReplyEmailRequired = "To track your order, please provide your email address."
	ReplyNoProducts    = "No matching products found."

	// defaultPendingMessage stands in for a lost pending message, the
	// awaiting state is only entered by a tracking request.
	defaultPendingMessage = "track my order"

	fallbackReplyHeader = "Here are some products that match your request:\n"
	ordersReplyHeader   = "Here are your recent orders:\n"

	groundingInstruction = "You are a helpful shopping assistant. " +
		"ONLY recommend products listed below. Never invent products or prices."
)

// Chat answers one conversational turn.
//
// When the state awaits an email the message is appended to the pending
// tracking request, or to a bare one when the pending message is empty.
// The returned state is idle whatever the outcome.
func (s Service) Chat(
	ctx context.Context, req domain.ChatRequest,
) (domain.ChatReply, error) {
	const op = "Service.Chat"
	log := slog.With("op", op)

	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return domain.ChatReply{}, fmt.Errorf("%s: %w", op, domain.ErrEmptyMessage)
	}

	followUp := req.State.AwaitingEmail
	if followUp {
		pending := strings.TrimSpace(req.State.PendingMessage)
		if pending == "" {
			pending = defaultPendingMessage
		}
		msg = pending + " user email: " + msg
	}

	in := s.extractor.Classify(msg)
	log.Debug("intent classified", "intent", in.Kind, "follow_up", followUp)

	var (
		reply domain.ChatReply
		err   error
	)
	switch in.Kind {
	case domain.IntentCancelOrder:
		reply = s.chatCancel(ctx, in)
	case domain.IntentAmbiguousCancel:
		reply = textReply(ReplyCancelExample)
	case domain.IntentTrackOrder:
		reply, err = s.chatTrack(ctx, in, req.UserEmail, msg, followUp)
	default:
		reply, err = s.chatSearch(ctx, msg)
	}
	if err != nil {
		return domain.ChatReply{}, fmt.Errorf("%s: %w", op, err)
	}
	return reply, nil
}

func (s Service) chatCancel(
	ctx context.Context, in domain.Intent,
) domain.ChatReply {
	const op = "Service.chatCancel"

	confirmation, err := s.CancelOrder(ctx, in.OrderID, in.Email)
	if err != nil {
		slog.With("op", op).Warn(
			"failed to cancel order", "order_id", in.OrderID, "err", err,
		)
		return textReply(ReplyCancelFailed)
	}
	return textReply(confirmation)
}

func (s Service) chatTrack(
	ctx context.Context,
	in domain.Intent,
	knownEmail, msg string,
	followUp bool,
) (domain.ChatReply, error) {
	email := strings.TrimSpace(knownEmail)
	if email == "" {
		email = in.Email
	}
	if email == "" {
		reply := textReply(ReplyEmailRequired)
		if !followUp {
			reply.State = domain.ConversationState{
				AwaitingEmail:  true,
				PendingMessage: msg,
			}
		}
		return reply, nil
	}

	user, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return textReply("No user found with email: " + email), nil
		}
		return domain.ChatReply{}, err
	}

	orders, err := s.orders.OrdersByUser(ctx, user.UserID)
	if err != nil {
		return domain.ChatReply{}, err
	}
	if len(orders) == 0 {
		return textReply("No orders found for email: " + email + "."), nil
	}

	lines := make([]string, len(orders))
	for i, o := range orders {
		lines[i] = OrderLine(o)
	}
	return textReply(ordersReplyHeader + strings.Join(lines, "\n")), nil
}

func (s Service) chatSearch(
	ctx context.Context, msg string,
) (domain.ChatReply, error) {
	const op = "Service.chatSearch"
	log := slog.With("op", op)

	ps, err := s.rankAndFuse(ctx, msg, fusion.ModeMerge, "chat")
	if err != nil {
		return domain.ChatReply{}, err
	}
	if len(ps) == 0 {
		return textReply(ReplyNoProducts), nil
	}

	top := ps[:min(chatProductLimit, len(ps))]
	summary := Summary(top)

	text, ok := s.generate(ctx, msg, summary)
	if !ok {
		metrics.Generation.WithLabelValues("fallback").Inc()
		text = fallbackReplyHeader + summary
	} else {
		metrics.Generation.WithLabelValues("ok").Inc()
	}

	briefs := make([]domain.ProductBrief, len(top))
	for i, p := range top {
		briefs[i] = p.Brief()
	}

	log.Debug("search reply", "products", len(briefs), "generated", ok)
	return domain.ChatReply{Reply: text, Products: briefs}, nil
}

func (s Service) generate(
	ctx context.Context, msg, summary string,
) (string, bool) {
	const op = "Service.generate"

	if s.generator == nil {
		return "", false
	}

	text, err := s.generator.Generate(ctx, groundingInstruction, Prompt(msg, summary))
	if err != nil {
		slog.With("op", op).Warn("generation failed, using template", "err", err)
		return "", false
	}

	text = strings.TrimSpace(text)
	return text, text != ""
}

// Prompt builds the user prompt grounded in the product summary.
func Prompt(msg, summary string) string {
	return fmt.Sprintf(
		"User asked: \"%s\"\nAvailable products:\n%s\n"+
			"Only mention products that match the user's criteria.",
		msg, summary,
	)
}

// Summary renders one "• name - $price (brand)" line per product.
func Summary(ps []domain.Product) string {
	lines := make([]string, len(ps))
	for i, p := range ps {
		brand := p.Brand
		if brand == "" {
			brand = "No brand"
		}
		lines[i] = fmt.Sprintf("• %s - $%s (%s)", p.Name, formatPrice(p.Price), brand)
	}
	return strings.Join(lines, "\n")
}

// OrderLine renders the tracking line of an order.
func OrderLine(o domain.Order) string {
	tracking := o.TrackingNumber
	if tracking == "" {
		tracking = "N/A"
	}
	eta := "N/A"
	if o.EstimatedDelivery != nil {
		eta = o.EstimatedDelivery.Format("2006-01-02")
	}

	id := o.OrderID
	if len(id) > 6 {
		id = id[len(id)-6:]
	}

	return fmt.Sprintf(
		"Order #%s: Status - %s, Tracking Number - %s, Estimated Delivery - %s",
		id, o.Status, tracking, eta,
	)
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func textReply(text string) domain.ChatReply {
	return domain.ChatReply{Reply: text, Products: []domain.ProductBrief{}}
}
