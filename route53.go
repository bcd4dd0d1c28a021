package zonesync

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
)

// UsingRoute53 registers Amazon Route 53 as the hosting API. Credentials and
// region come from the default AWS configuration chain (environment,
// credentials file, instance role).
func UsingRoute53() Option {
	return func(c *Client) error {
		cfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			return fmt.Errorf("zonesync.UsingRoute53: error loading AWS configuration: %w", err)
		}
		c.submitter = &route53Submitter{
			api:    route53.NewFromConfig(cfg),
			logger: discard,
		}
		return nil
	}
}

// UsingRoute53Client registers Route 53 with a caller-supplied client,
// bypassing the default configuration chain.
func UsingRoute53Client(api Route53ChangeAPI) Option {
	return func(c *Client) error {
		if api == nil {
			return fmt.Errorf("zonesync.UsingRoute53Client: api cannot be nil")
		}
		c.submitter = &route53Submitter{api: api, logger: discard}
		return nil
	}
}

// Route53ChangeAPI is the slice of the Route 53 API the submitter needs.
// *route53.Client satisfies it.
type Route53ChangeAPI interface {
	ChangeResourceRecordSets(ctx context.Context, params *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error)
}

type route53Submitter struct {
	api    Route53ChangeAPI
	logger *log.Logger
}

// SubmitChanges sends one ChangeResourceRecordSets request with every record
// set as an UPSERT. Route 53 applies the change batch atomically: the whole
// request either succeeds or fails, with no partial application, and that is
// exactly what the returned error reflects.
func (s *route53Submitter) SubmitChanges(ctx context.Context, zoneID string, sets []RecordSet) error {
	changes := make([]r53types.Change, 0, len(sets))
	for _, rs := range sets {
		records := make([]r53types.ResourceRecord, 0, len(rs.Values))
		for _, v := range rs.Values {
			records = append(records, r53types.ResourceRecord{Value: aws.String(v)})
		}
		changes = append(changes, r53types.Change{
			Action: r53types.ChangeActionUpsert,
			ResourceRecordSet: &r53types.ResourceRecordSet{
				Name:            aws.String(rs.Name),
				Type:            r53types.RRType(rs.Type),
				TTL:             aws.Int64(int64(rs.TTL)),
				ResourceRecords: records,
			},
		})
	}
	out, err := s.api.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
		ChangeBatch:  &r53types.ChangeBatch{Changes: changes},
	})
	if err != nil {
		return fmt.Errorf("error changing resource record sets in zone %s: %w", zoneID, err)
	}
	if out.ChangeInfo != nil && out.ChangeInfo.Id != nil {
		s.logger.Printf("change %s accepted with status %s", *out.ChangeInfo.Id, out.ChangeInfo.Status)
	}
	return nil
}
