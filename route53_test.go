package zonesync

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
)

type fakeRoute53 struct {
	inputs []*route53.ChangeResourceRecordSetsInput
	err    error
}

func (f *fakeRoute53) ChangeResourceRecordSets(ctx context.Context, params *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &route53.ChangeResourceRecordSetsOutput{}, nil
}

func TestRoute53SubmitChanges(t *testing.T) {
	api := &fakeRoute53{}
	s := &route53Submitter{api: api, logger: discard}

	sets := []RecordSet{
		{Name: "www.example.com.", Type: "A", TTL: 300, Values: []string{"1.2.3.4", "1.2.3.5"}},
		{Name: "info.example.com.", Type: "TXT", TTL: 3600, Values: []string{`"v=spf1 -all"`}},
	}
	if err := s.SubmitChanges(context.Background(), "Z123", sets); err != nil {
		t.Fatalf("SubmitChanges failed: %s", err)
	}
	if len(api.inputs) != 1 {
		t.Fatalf("Expected 1 API request; got %d", len(api.inputs))
	}
	in := api.inputs[0]
	if *in.HostedZoneId != "Z123" {
		t.Errorf("Expected hosted zone Z123; got %q", *in.HostedZoneId)
	}
	changes := in.ChangeBatch.Changes
	if len(changes) != 2 {
		t.Fatalf("Expected 2 changes in the batch; got %d", len(changes))
	}
	for _, chg := range changes {
		if chg.Action != r53types.ChangeActionUpsert {
			t.Errorf("Expected every change to be an UPSERT; got %s", chg.Action)
		}
	}
	rrset := changes[0].ResourceRecordSet
	if *rrset.Name != "www.example.com." || rrset.Type != r53types.RRTypeA || *rrset.TTL != 300 {
		t.Errorf("Unexpected record set: %+v", rrset)
	}
	if len(rrset.ResourceRecords) != 2 || *rrset.ResourceRecords[0].Value != "1.2.3.4" {
		t.Errorf("Unexpected resource records: %+v", rrset.ResourceRecords)
	}
}

func TestRoute53SubmitChangesError(t *testing.T) {
	rejected := errors.New("InvalidChangeBatch")
	s := &route53Submitter{api: &fakeRoute53{err: rejected}, logger: discard}

	err := s.SubmitChanges(context.Background(), "Z123", []RecordSet{
		{Name: "www.example.com.", Type: "A", TTL: 300, Values: []string{"1.2.3.4"}},
	})
	if !errors.Is(err, rejected) {
		t.Fatalf("Expected the API error to be wrapped; got %v", err)
	}
}
