package client

import (
	"context"

	"github.com/arterrin/lvrpc/procedure"
)

// SubscribeDomainEvents registers interest in eventID for domain (nil
// means all domains) via CONNECT_DOMAIN_EVENT_CALLBACK_REGISTER_ANY and
// returns the callback id needed to unsubscribe later. Decoded events then
// arrive on c.Events() tagged with the matching procedure number.
func (c *Connection) SubscribeDomainEvents(ctx context.Context, eventID int32, domain *procedure.Domain) (int32, error) {
	reply, err := c.Call(ctx, procedure.ProcConnectDomainEventCallbackRegisterAny, procedure.DomainEventCallbackRegisterAnyArgs{
		EventID: eventID,
		Domain:  domain,
	})
	if err != nil {
		return 0, err
	}
	return reply.(procedure.DomainEventCallbackRegisterAnyReply).CallbackID, nil
}

// UnsubscribeDomainEvents deregisters a callback id returned by
// SubscribeDomainEvents.
func (c *Connection) UnsubscribeDomainEvents(ctx context.Context, callbackID int32) error {
	_, err := c.Call(ctx, procedure.ProcConnectDomainEventCallbackDeregisterAny, procedure.DomainEventCallbackDeregisterAnyArgs{
		CallbackID: callbackID,
	})
	return err
}
