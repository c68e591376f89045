package provider

import "github.com/zrl37/crystallize/internal/models"

// BuildHistory maps chat messages to turns. Messages from the user and system
// notices are user turns; everything else is a model turn whose text is
// prefixed with "[sender]: " so several personas stay distinguishable.
func BuildHistory(msgs []*models.Message) []Turn {
	out := make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		t := Turn{Speaker: SpeakerUser, Text: m.Text, Images: Images(m.Attachments)}
		if !m.IsFromUser() && m.Kind != models.KindSystem {
			t.Speaker = SpeakerModel
			t.Text = "[" + m.SenderName + "]: " + m.Text
		}
		out = append(out, t)
	}
	return out
}

// Images returns the image attachments as inline payloads.
func Images(atts []models.Attachment) []Image {
	var out []Image
	for _, a := range atts {
		if a.IsImage() {
			out = append(out, Image{MimeType: a.MimeType, Data: a.Data})
		}
	}
	return out
}
