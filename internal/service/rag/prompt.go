package rag

import "fmt"

// Language selects the prompt and refusal wording.
type Language string

const (
	LanguageIndonesian Language = "id"
	LanguageEnglish    Language = "en"
)

const (
	noBasisAnswerID = "Tidak ditemukan dasar hukum yang relevan dalam dokumen yang tersedia."
	noBasisAnswerEN = "No relevant legal basis was found in the available documents."
)

const answerPromptID = `Anda adalah asisten hukum yang ahli.
Gunakan dokumen-dokumen berikut untuk menjawab pertanyaan:

%s

JIKA TIDAK ADA DOKUMEN YANG RELEVAN:
- Katakan "%s"
- Jangan membuat jawaban dari imajinasi

FORMAT JAWABAN:
- Sertakan referensi pasal dan sumber dokumen
- Gunakan bahasa Indonesia yang formal`

const answerPromptEN = `You are an expert legal assistant.
Use the following documents to answer the question:

%s

IF NO RELEVANT DOCUMENTS ARE PRESENT:
- Say "%s"
- Never invent an answer

ANSWER FORMAT:
- Cite the article and the source document
- Keep the answer concise and formal`

// NoBasisAnswer is the configured refusal for turns where retrieval
// produced no usable context. Returned verbatim, never paraphrased.
func NoBasisAnswer(lang Language) string {
	if lang == LanguageEnglish {
		return noBasisAnswerEN
	}
	return noBasisAnswerID
}

// answerSystemPrompt embeds the retrieved context block into the
// answer-synthesis instruction.
func answerSystemPrompt(lang Language, docsContent string) string {
	if lang == LanguageEnglish {
		return fmt.Sprintf(answerPromptEN, docsContent, noBasisAnswerEN)
	}
	return fmt.Sprintf(answerPromptID, docsContent, noBasisAnswerID)
}
