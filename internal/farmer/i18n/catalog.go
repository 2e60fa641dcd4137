package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var english = map[string]string{
	"login.error_generic":            "Login failed",
	"login.error_server":             "Could not reach the server",
	"register.error_generic":         "Registration failed",
	"register.success_register":      "Registration successful",
	"form.error_aadhar_missing":      "Aadhar number is missing",
	"form.error_save_failed":         "Could not save the form",
	"form.speech_not_supported":      "Speech recognition is not supported, please type your answers",
	"form.current_step":              "Step %d / %d",
	"form.confirm_hint":              "Press Enter on an empty line to confirm a field, or type /speak to dictate",
	"submitted.invalid_history_data": "Invalid history data received",
	"submitted.error_fetch_history":  "Failed to fetch history",
	"submitted.no_file_selected":     "Please select a file first",
	"submitted.error_upload_failed":  "Upload failed",
	"submitted.error_invalid_result": "The detection result is invalid",
	"submitted.error_aadhar_missing": "Aadhar number is missing",
	"submitted.error_save_failed":    "Failed to save detection",
	"submitted.error_save_farmer":    "Failed to save farmer data",
	"submitted.no_detections":        "No detections yet",
	"submitted.disease_label":        "Disease",
	"submitted.confidence_label":     "Confidence",
	"chatbot.error_fetch_history":    "Failed to fetch chat history",
	"chatbot.error_chat_failed":      "The assistant could not answer",
	"chatbot.error_chat_request":     "Chat request failed",
	"chatbot.speech_not_supported":   "Speech recognition is not supported, please type your question",
	"chatbot.no_chats":               "No past chats",
	"chatbot.question_label":         "Question",
	"chatbot.answer_label":           "Answer",
	"map.error_snapshot":             "Could not hand data to the map",
	"validation.invalid_identity":    "Aadhar number must be exactly 12 characters",
	"validation.missing_identity":    "Aadhar number is missing",
	"validation.missing_secret":      "Password is required",
	"validation.empty_field":         "This field is required",
	"validation.invalid_choice":      "Please choose one of the listed options",
	"validation.inactive_field":      "Only the current field can be edited",
	"validation.wizard_finished":     "The form has already been submitted",
	"validation.not_last_step":       "Please complete the remaining fields",
	"validation.empty_question":      "Please type a question",
	"validation.in_flight":           "Please wait for the current request to finish",
	"validation.no_file":             "Please select a file first",
	"validation.not_savable":         "The detection result is invalid",
	"validation.invalid_transition":  "That action is not available right now",
	"validation.speech_unsupported":  "Speech recognition is not supported on this device",
	"validation.already_capturing":   "Already listening",
	"validation.not_capturing":       "Not listening",
	"validation.stale":               "The response arrived too late and was ignored",
	"storage.not_found":              "Nothing stored yet",
	"storage.failed":                 "Local storage failed",
}

var hindi = map[string]string{
	"login.error_generic":            "लॉगिन विफल रहा",
	"login.error_server":             "सर्वर से संपर्क नहीं हो सका",
	"register.error_generic":         "पंजीकरण विफल रहा",
	"register.success_register":      "पंजीकरण सफल रहा",
	"form.error_aadhar_missing":      "आधार संख्या उपलब्ध नहीं है",
	"form.error_save_failed":         "फ़ॉर्म सहेजा नहीं जा सका",
	"form.speech_not_supported":      "वाक् पहचान समर्थित नहीं है, कृपया उत्तर टाइप करें",
	"form.current_step":              "चरण %d / %d",
	"form.confirm_hint":              "फ़ील्ड की पुष्टि के लिए खाली पंक्ति पर Enter दबाएँ, या बोलने के लिए /speak लिखें",
	"submitted.invalid_history_data": "अमान्य इतिहास डेटा प्राप्त हुआ",
	"submitted.error_fetch_history":  "इतिहास लाने में विफल",
	"submitted.no_file_selected":     "कृपया पहले एक फ़ाइल चुनें",
	"submitted.error_upload_failed":  "अपलोड विफल रहा",
	"submitted.error_invalid_result": "पहचान परिणाम अमान्य है",
	"submitted.error_aadhar_missing": "आधार संख्या उपलब्ध नहीं है",
	"submitted.error_save_failed":    "पहचान सहेजने में विफल",
	"submitted.error_save_farmer":    "किसान डेटा सहेजने में विफल",
	"submitted.no_detections":        "अभी तक कोई पहचान नहीं",
	"submitted.disease_label":        "रोग",
	"submitted.confidence_label":     "विश्वास",
	"chatbot.error_fetch_history":    "चैट इतिहास लाने में विफल",
	"chatbot.error_chat_failed":      "सहायक उत्तर नहीं दे सका",
	"chatbot.error_chat_request":     "चैट अनुरोध विफल रहा",
	"chatbot.speech_not_supported":   "वाक् पहचान समर्थित नहीं है, कृपया प्रश्न टाइप करें",
	"chatbot.no_chats":               "कोई पिछली चैट नहीं",
	"chatbot.question_label":         "प्रश्न",
	"chatbot.answer_label":           "उत्तर",
	"map.error_snapshot":             "मानचित्र को डेटा नहीं दिया जा सका",
	"validation.invalid_identity":    "आधार संख्या ठीक 12 अक्षरों की होनी चाहिए",
	"validation.missing_identity":    "आधार संख्या उपलब्ध नहीं है",
	"validation.missing_secret":      "पासवर्ड आवश्यक है",
	"validation.empty_field":         "यह फ़ील्ड आवश्यक है",
	"validation.invalid_choice":      "कृपया सूची में से एक विकल्प चुनें",
	"validation.inactive_field":      "केवल वर्तमान फ़ील्ड बदली जा सकती है",
	"validation.wizard_finished":     "फ़ॉर्म पहले ही जमा किया जा चुका है",
	"validation.not_last_step":       "कृपया शेष फ़ील्ड पूरी करें",
	"validation.empty_question":      "कृपया एक प्रश्न टाइप करें",
	"validation.in_flight":           "कृपया वर्तमान अनुरोध पूरा होने तक प्रतीक्षा करें",
	"validation.no_file":             "कृपया पहले एक फ़ाइल चुनें",
	"validation.not_savable":         "पहचान परिणाम अमान्य है",
	"validation.invalid_transition":  "यह क्रिया अभी उपलब्ध नहीं है",
	"validation.speech_unsupported":  "इस उपकरण पर वाक् पहचान समर्थित नहीं है",
	"validation.already_capturing":   "पहले से सुन रहे हैं",
	"validation.not_capturing":       "सुनना सक्रिय नहीं है",
	"validation.stale":               "उत्तर देर से आया और अनदेखा किया गया",
	"storage.not_found":              "अभी कुछ सहेजा नहीं गया",
	"storage.failed":                 "स्थानीय संग्रहण विफल रहा",
}

func init() {
	for key, msg := range english {
		if err := message.SetString(language.English, key, msg); err != nil {
			panic(err)
		}
	}
	for key, msg := range hindi {
		if err := message.SetString(language.Hindi, key, msg); err != nil {
			panic(err)
		}
	}
}
