package utils

import (
	"fmt"
	"log"
	"os"

	"github.com/wneessen/go-mail"

	"rumor_backend/internal/models"
)

// SendConfirmationEmail envoie la confirmation de commande en HTML
func SendConfirmationEmail(to, subject, htmlBody string) error {
	msg := mail.NewMsg()

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@rumor.by"
	}
	if err := msg.From(from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(os.Getenv("SMTP_HOST"),
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// GenerateOrderConfirmationHTML génère le HTML de confirmation de commande
func GenerateOrderConfirmationHTML(order *models.Order) string {
	itemsHTML := ""
	for _, item := range order.Items {
		label := item.ProductName
		if item.Size != "" {
			label += " (" + item.Size + ")"
		}
		if item.Color != "" {
			label += " - " + item.Color
		}
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td>%s</td>
				<td>%d</td>
				<td>%.2f</td>
				<td>%.2f</td>
			</tr>`, label, item.Quantity, item.ProductPrice, item.ProductPrice*float64(item.Quantity))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="ru">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Подтверждение заказа</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Ваш заказ оплачен</h2>
		<p>Здравствуйте, %s!</p>
		<p>Оплата заказа прошла успешно. Мы свяжемся с вами для уточнения доставки.</p>

		<h3>Состав заказа</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Товар</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Кол-во</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Цена</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Сумма</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
			<tfoot>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right; font-weight: bold;">Итого:</td>
					<td style="padding: 10px; font-weight: bold;">%.2f BYN</td>
				</tr>
			</tfoot>
		</table>

		<p style="margin-top: 30px; color: #555;">
			С любовью,<br>
			<strong>Команда RUMOR</strong>
		</p>
	</div>
</body>
</html>`, order.CustomerName, itemsHTML, order.TotalPrice)
}
