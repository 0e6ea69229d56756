package tessdata

// langNames maps traineddata codes to English language names.
var langNames = map[string]string{
	"afr":          "Afrikaans",
	"amh":          "Amharic",
	"ara":          "Arabic",
	"asm":          "Assamese",
	"aze":          "Azerbaijani",
	"aze_cyrl":     "Azerbaijani (Cyrillic)",
	"bel":          "Belarusian",
	"ben":          "Bengali",
	"bod":          "Tibetan",
	"bos":          "Bosnian",
	"bre":          "Breton",
	"bul":          "Bulgarian",
	"cat":          "Catalan; Valencian",
	"ceb":          "Cebuano",
	"ces":          "Czech",
	"chi_sim":      "Chinese (simplified)",
	"chi_sim_vert": "Chinese (simplified, vertical)",
	"chi_tra":      "Chinese (traditional)",
	"chi_tra_vert": "Chinese (traditional, vertical)",
	"chr":          "Cherokee",
	"cos":          "Corsican",
	"cym":          "Welsh",
	"dan":          "Danish",
	"dan_frak":     "Danish (Fraktur)",
	"deu":          "German",
	"deu_frak":     "German (Fraktur)",
	"div":          "Dhivehi; Divehi; Maldivian",
	"dzo":          "Dzongkha",
	"ell":          "Greek, Modern (1453-)",
	"eng":          "English",
	"enm":          "English, Middle (1100-1500)",
	"epo":          "Esperanto",
	"est":          "Estonian",
	"eus":          "Basque",
	"fao":          "Faroese",
	"fas":          "Persian",
	"fil":          "Filipino; Pilipino",
	"fin":          "Finnish",
	"fra":          "French",
	"frk":          "German (Fraktur)",
	"frm":          "French, Middle (ca. 1400-1600)",
	"fry":          "Frisian, Western",
	"gla":          "Gaelic, Scottish",
	"gle":          "Irish",
	"glg":          "Galician",
	"grc":          "Greek, Ancient (to 1453)",
	"guj":          "Gujarati",
	"hat":          "Creole, Haitian",
	"heb":          "Hebrew",
	"hin":          "Hindi",
	"hrv":          "Croatian",
	"hun":          "Hungarian",
	"hye":          "Armenian",
	"iku":          "Inuktitut",
	"ind":          "Indonesian",
	"isl":          "Icelandic",
	"ita":          "Italian",
	"ita_old":      "Italian (old)",
	"jav":          "Javanese",
	"jpn":          "Japanese",
	"jpn_vert":     "Japanese (vertical)",
	"kan":          "Kannada",
	"kat":          "Georgian",
	"kat_old":      "Georgian (old)",
	"kaz":          "Kazakh",
	"khm":          "Khmer, Central",
	"kir":          "Kirghiz; Kyrgyz",
	"kmr":          "Kurdish, Northern",
	"kor":          "Korean",
	"kor_vert":     "Korean (vertical)",
	"kur":          "Kurdish",
	"lao":          "Lao",
	"lat":          "Latin",
	"lav":          "Latvian",
	"lit":          "Lithuanian",
	"ltz":          "Luxembourgish; Letzeburgesch",
	"mal":          "Malayalam",
	"mar":          "Marathi",
	"mkd":          "Macedonian",
	"mlt":          "Maltese",
	"mon":          "Mongolian",
	"mri":          "Maori",
	"msa":          "Malay",
	"mya":          "Burmese",
	"nep":          "Nepali",
	"nld":          "Dutch; Flemish",
	"nor":          "Norwegian",
	"oci":          "Occitan (post 1500)",
	"ori":          "Oriya",
	"pan":          "Panjabi; Punjabi",
	"pol":          "Polish",
	"por":          "Portuguese",
	"pus":          "Pushto; Pashto",
	"que":          "Quechua",
	"ron":          "Romanian; Moldavian; Moldovan",
	"rus":          "Russian",
	"san":          "Sanskrit",
	"sin":          "Sinhala; Sinhalese",
	"slk":          "Slovak",
	"slk_frak":     "Slovak (Fraktur)",
	"slv":          "Slovenian",
	"snd":          "Sindhi",
	"spa":          "Spanish; Castilian",
	"spa_old":      "Spanish; Castilian (old)",
	"sqi":          "Albanian",
	"srp":          "Serbian",
	"srp_latn":     "Serbian (Latin)",
	"sun":          "Sundanese",
	"swa":          "Swahili",
	"swe":          "Swedish",
	"syr":          "Syriac",
	"tam":          "Tamil",
	"tat":          "Tatar",
	"tel":          "Telugu",
	"tgk":          "Tajik",
	"tgl":          "Tagalog",
	"tha":          "Thai",
	"tir":          "Tigrinya",
	"ton":          "Tonga (Tonga Islands)",
	"tur":          "Turkish",
	"uig":          "Uighur; Uyghur",
	"ukr":          "Ukrainian",
	"urd":          "Urdu",
	"uzb":          "Uzbek",
	"uzb_cyrl":     "Uzbek (Cyrillic)",
	"vie":          "Vietnamese",
	"yid":          "Yiddish",
	"yor":          "Yoruba",
}

// LangName returns the display name for code, or "" when unknown.
func LangName(code string) string {
	return langNames[code]
}
