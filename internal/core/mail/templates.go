package mail

import (
	"fmt"
	"html"
	"strings"
)

func PasswordReset(name, email, link string) Message {
	return Message{
		ToName:  name,
		ToEmail: email,
		Subject: "Reset your LUXORA password",
		Text:    fmt.Sprintf("Hi %s,\n\nUse the link below to reset your password. It expires in 1 hour.\n\n%s\n\nIf you did not ask for this, ignore this mail.", name, link),
		HTML: fmt.Sprintf(`<p>Hi %s,</p><p>Use the link below to reset your password. It expires in 1 hour.</p><p><a href="%s">Reset password</a></p><p>If you did not ask for this, ignore this mail.</p>`,
			html.EscapeString(name), html.EscapeString(link)),
	}
}

type OrderLine struct {
	Title    string
	Quantity int
	Amount   string
}

func OrderPlaced(name, email, orderID, total string, lines []OrderLine) Message {
	var txt, htm strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&txt, "- %s x%d  %s\n", l.Title, l.Quantity, l.Amount)
		fmt.Fprintf(&htm, "<li>%s x%d &nbsp; %s</li>", html.EscapeString(l.Title), l.Quantity, html.EscapeString(l.Amount))
	}
	return Message{
		ToName:  name,
		ToEmail: email,
		Subject: "Your LUXORA order " + orderID,
		Text:    fmt.Sprintf("Hi %s,\n\nThanks for your order %s.\n\n%s\nTotal: %s\n", name, orderID, txt.String(), total),
		HTML: fmt.Sprintf("<p>Hi %s,</p><p>Thanks for your order <b>%s</b>.</p><ul>%s</ul><p>Total: %s</p>",
			html.EscapeString(name), html.EscapeString(orderID), htm.String(), html.EscapeString(total)),
	}
}
