package notify

import (
	"fmt"
	"strings"
)

// =============================================================================
// EMAIL TEMPLATES - Subject and body per event type
// =============================================================================

// Render produces the subject line and plain-text body for an event.
// Unknown event types get a generic status-update rendering rather than an
// error; a notification must never fail a transition.
func Render(event Event) (subject, body string) {
	c := event.Context
	name := orDefault(c["employee_name"], "there")

	switch event.Type {
	case EventApplicationSubmitted:
		subject = "Sabbatical Application Received"
		body = paragraphs(
			fmt.Sprintf("Hi %s,", name),
			"Thank you for submitting your sabbatical application! We're excited that you're taking advantage of this benefit after "+
				orDefault(c["years_of_service"], "many")+" years of dedicated service.",
			detailBlock(c),
			"Your supervisor will review your application and you'll hear back soon.",
		)
	case EventTentativelyApproved:
		subject = "Sabbatical Application: Tentatively Approved"
		body = paragraphs(
			fmt.Sprintf("Hi %s,", name),
			"Your sabbatical application has been tentatively approved by your supervisor and is now pending network review.",
			detailBlock(c),
		)
	case EventApproved:
		subject = "Sabbatical Application: Approved"
		body = paragraphs(
			fmt.Sprintf("Hi %s,", name),
			"Congratulations, your sabbatical application has been approved! You have earned this well-deserved break.",
			detailBlock(c),
			"Next step: build your sabbatical plan so your team is covered while you're away.",
		)
	case EventDenied:
		subject = "Sabbatical Application: Not Approved"
		body = paragraphs(
			fmt.Sprintf("Hi %s,", name),
			"Unfortunately your sabbatical application was not approved at this time.",
			orDefault(c["notes"], ""),
			"Please reach out to your supervisor if you'd like to discuss.",
		)
	case EventPlanSubmitted:
		subject = "Sabbatical Plan Submitted for Your Review"
		body = paragraphs(
			"A sabbatical plan is ready for your sign-off.",
			detailBlock(c),
			"Please review and record your decision.",
		)
	case EventPlanApprovalRecorded:
		subject = "Sabbatical Plan: Approval Recorded"
		body = paragraphs(
			fmt.Sprintf("Hi %s,", name),
			fmt.Sprintf("%s recorded a decision on your sabbatical plan: %s.",
				orDefault(c["approver"], "An approver"), orDefault(c["decision"], "recorded")),
			orDefault(c["notes"], ""),
		)
	case EventPlanChangesRequested:
		subject = "Sabbatical Plan: Changes Requested"
		body = paragraphs(
			fmt.Sprintf("Hi %s,", name),
			"An approver has requested changes to your sabbatical plan:",
			orDefault(c["notes"], "(no notes provided)"),
			"Update your plan and resubmit when ready.",
		)
	case EventPlanConfirmed:
		subject = "Sabbatical Plan Confirmed"
		body = paragraphs(
			fmt.Sprintf("Hi %s,", name),
			"All approvers have signed off. Your sabbatical plan is confirmed!",
			detailBlock(c),
		)
	case EventDateChangeRequested:
		subject = "Sabbatical Date Change Requested"
		body = paragraphs(
			"A date change has been requested and needs network approval.",
			fmt.Sprintf("Requested dates: %s to %s", c["new_start"], c["new_end"]),
			orDefault(c["reason"], ""),
		)
	case EventDateChangeDecided:
		subject = "Sabbatical Date Change: " + capitalize(orDefault(c["decision"], "decided"))
		body = paragraphs(
			fmt.Sprintf("Hi %s,", name),
			fmt.Sprintf("Your date change request was %s.", orDefault(c["decision"], "decided")),
			detailBlock(c),
		)
	default:
		subject = "Sabbatical Application Update"
		body = paragraphs(
			fmt.Sprintf("Hi %s,", name),
			"Your sabbatical application status has been updated.",
			detailBlock(c),
		)
	}
	return subject, body
}

func detailBlock(c map[string]string) string {
	var b strings.Builder
	if v := c["option_label"]; v != "" {
		fmt.Fprintf(&b, "Option: %s\n", v)
	}
	if c["start_date"] != "" || c["end_date"] != "" {
		fmt.Fprintf(&b, "Dates: %s to %s\n", c["start_date"], c["end_date"])
	}
	if v := c["years_of_service"]; v != "" {
		fmt.Fprintf(&b, "Years of Service: %s years\n", v)
	}
	return strings.TrimRight(b.String(), "\n")
}

func paragraphs(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
