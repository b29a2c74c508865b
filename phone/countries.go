package phone

// countries maps ISO codes to dial codes. Table order breaks the remaining
// ties in Identify.
var countries = []country{
	{iso: "af", name: "Afghanistan", dial: "93"},
	{iso: "al", name: "Albania", dial: "355"},
	{iso: "dz", name: "Algeria", dial: "213"},
	{iso: "as", name: "American Samoa", dial: "1", priority: 5, areas: []string{"684"}},
	{iso: "ad", name: "Andorra", dial: "376"},
	{iso: "ao", name: "Angola", dial: "244"},
	{iso: "ai", name: "Anguilla", dial: "1", priority: 6, areas: []string{"264"}},
	{iso: "ag", name: "Antigua and Barbuda", dial: "1", priority: 7, areas: []string{"268"}},
	{iso: "ar", name: "Argentina", dial: "54"},
	{iso: "am", name: "Armenia", dial: "374"},
	{iso: "aw", name: "Aruba", dial: "297"},
	{iso: "au", name: "Australia", dial: "61"},
	{iso: "at", name: "Austria", dial: "43"},
	{iso: "az", name: "Azerbaijan", dial: "994"},
	{iso: "bs", name: "Bahamas", dial: "1", priority: 8, areas: []string{"242"}},
	{iso: "bh", name: "Bahrain", dial: "973"},
	{iso: "bd", name: "Bangladesh", dial: "880"},
	{iso: "bb", name: "Barbados", dial: "1", priority: 9, areas: []string{"246"}},
	{iso: "by", name: "Belarus", dial: "375"},
	{iso: "be", name: "Belgium", dial: "32"},
	{iso: "bz", name: "Belize", dial: "501"},
	{iso: "bj", name: "Benin", dial: "229"},
	{iso: "bm", name: "Bermuda", dial: "1", priority: 10, areas: []string{"441"}},
	{iso: "bt", name: "Bhutan", dial: "975"},
	{iso: "bo", name: "Bolivia", dial: "591"},
	{iso: "ba", name: "Bosnia and Herzegovina", dial: "387"},
	{iso: "bw", name: "Botswana", dial: "267"},
	{iso: "br", name: "Brazil (Brasil)", dial: "55"},
	{iso: "io", name: "British Indian Ocean Territory", dial: "246"},
	{iso: "vg", name: "British Virgin Islands", dial: "1", priority: 11, areas: []string{"284"}},
	{iso: "bn", name: "Brunei", dial: "673"},
	{iso: "bg", name: "Bulgaria", dial: "359"},
	{iso: "bf", name: "Burkina Faso", dial: "226"},
	{iso: "bi", name: "Burundi (Uburundi)", dial: "257"},
	{iso: "kh", name: "Cambodia", dial: "855"},
	{iso: "cm", name: "Cameroon (Cameroun)", dial: "237"},
	{iso: "ca", name: "Canada", dial: "1", priority: 1, areas: []string{"204", "226", "236", "249", "250", "289", "306", "343", "365", "387", "403", "416", "418", "431", "437", "438", "450", "506", "514", "519", "548", "579", "581", "587", "604", "613", "639", "647", "672", "705", "709", "742", "778", "780", "782", "807", "819", "825", "867", "873", "902", "905"}},
	{iso: "cv", name: "Cape Verde (Kabu Verdi)", dial: "238"},
	{iso: "bq", name: "Caribbean Netherlands", dial: "599", priority: 1, areas: []string{"3", "4", "7"}},
	{iso: "ky", name: "Cayman Islands", dial: "1", priority: 12, areas: []string{"345"}},
	{iso: "cf", name: "Central African Republic", dial: "236"},
	{iso: "td", name: "Chad (Tchad)", dial: "235"},
	{iso: "cl", name: "Chile", dial: "56"},
	{iso: "cn", name: "China", dial: "86"},
	{iso: "cx", name: "Christmas Island", dial: "61", priority: 2},
	{iso: "cc", name: "Cocos (Keeling) Islands", dial: "61", priority: 1},
	{iso: "co", name: "Colombia", dial: "57"},
	{iso: "km", name: "Comoros", dial: "269"},
	{iso: "cd", name: "Congo (DRC) (Jamhuri ya Kidemokrasia ya Kongo)", dial: "243"},
	{iso: "cg", name: "Congo (Republic) (Congo-Brazzaville)", dial: "242"},
	{iso: "ck", name: "Cook Islands", dial: "682"},
	{iso: "cr", name: "Costa Rica", dial: "506"},
	{iso: "ci", name: "Côte d’Ivoire", dial: "225"},
	{iso: "hr", name: "Croatia (Hrvatska)", dial: "385"},
	{iso: "cu", name: "Cuba", dial: "53"},
	{iso: "cw", name: "Curaçao", dial: "599"},
	{iso: "cy", name: "Cyprus", dial: "357"},
	{iso: "cz", name: "Czech Republic", dial: "420"},
	{iso: "dk", name: "Denmark (Danmark)", dial: "45"},
	{iso: "dj", name: "Djibouti", dial: "253"},
	{iso: "dm", name: "Dominica", dial: "1", priority: 13, areas: []string{"767"}},
	{iso: "do", name: "Dominican Republic", dial: "1", priority: 2, areas: []string{"809", "829", "849"}},
	{iso: "ec", name: "Ecuador", dial: "593"},
	{iso: "eg", name: "Egypt", dial: "20"},
	{iso: "sv", name: "El Salvador", dial: "503"},
	{iso: "gq", name: "Equatorial Guinea (Guinea Ecuatorial)", dial: "240"},
	{iso: "er", name: "Eritrea", dial: "291"},
	{iso: "ee", name: "Estonia (Eesti)", dial: "372"},
	{iso: "et", name: "Ethiopia", dial: "251"},
	{iso: "fk", name: "Falkland Islands (Islas Malvinas)", dial: "500"},
	{iso: "fo", name: "Faroe Islands", dial: "298"},
	{iso: "fj", name: "Fiji", dial: "679"},
	{iso: "fi", name: "Finland (Suomi)", dial: "358"},
	{iso: "fr", name: "France", dial: "33"},
	{iso: "gf", name: "French Guiana", dial: "594"},
	{iso: "pf", name: "French Polynesia", dial: "689"},
	{iso: "ga", name: "Gabon", dial: "241"},
	{iso: "gm", name: "Gambia", dial: "220"},
	{iso: "ge", name: "Georgia", dial: "995"},
	{iso: "de", name: "Germany (Deutschland)", dial: "49"},
	{iso: "gh", name: "Ghana (Gaana)", dial: "233"},
	{iso: "gi", name: "Gibraltar", dial: "350"},
	{iso: "gr", name: "Greece", dial: "30"},
	{iso: "gl", name: "Greenland (Kalaallit Nunaat)", dial: "299"},
	{iso: "gd", name: "Grenada", dial: "1", priority: 14, areas: []string{"473"}},
	{iso: "gp", name: "Guadeloupe", dial: "590"},
	{iso: "gu", name: "Guam", dial: "1", priority: 15, areas: []string{"671"}},
	{iso: "gt", name: "Guatemala", dial: "502"},
	{iso: "gg", name: "Guernsey", dial: "44", priority: 1, areas: []string{"1481", "7781", "7839", "7911"}},
	{iso: "gn", name: "Guinea", dial: "224"},
	{iso: "gw", name: "Guinea-Bissau", dial: "245"},
	{iso: "gy", name: "Guyana", dial: "592"},
	{iso: "ht", name: "Haiti", dial: "509"},
	{iso: "hn", name: "Honduras", dial: "504"},
	{iso: "hk", name: "Hong Kong", dial: "852"},
	{iso: "hu", name: "Hungary", dial: "36"},
	{iso: "is", name: "Iceland", dial: "354"},
	{iso: "in", name: "India", dial: "91"},
	{iso: "id", name: "Indonesia", dial: "62"},
	{iso: "ir", name: "Iran", dial: "98"},
	{iso: "iq", name: "Iraq", dial: "964"},
	{iso: "ie", name: "Ireland", dial: "353"},
	{iso: "im", name: "Isle of Man", dial: "44", priority: 2, areas: []string{"1624", "74576", "7524", "7924", "7624"}},
	{iso: "il", name: "Israel", dial: "972"},
	{iso: "it", name: "Italy (Italia)", dial: "39"},
	{iso: "jm", name: "Jamaica", dial: "1", priority: 4, areas: []string{"876", "658"}},
	{iso: "jp", name: "Japan", dial: "81"},
	{iso: "je", name: "Jersey", dial: "44", priority: 3, areas: []string{"1534", "7509", "7700", "7797", "7829", "7937"}},
	{iso: "jo", name: "Jordan", dial: "962"},
	{iso: "kz", name: "Kazakhstan", dial: "7", priority: 1, areas: []string{"33", "7"}},
	{iso: "ke", name: "Kenya", dial: "254"},
	{iso: "ki", name: "Kiribati", dial: "686"},
	{iso: "xk", name: "Kosovo", dial: "383"},
	{iso: "kw", name: "Kuwait", dial: "965"},
	{iso: "kg", name: "Kyrgyzstan", dial: "996"},
	{iso: "la", name: "Laos", dial: "856"},
	{iso: "lv", name: "Latvia (Latvija)", dial: "371"},
	{iso: "lb", name: "Lebanon", dial: "961"},
	{iso: "ls", name: "Lesotho", dial: "266"},
	{iso: "lr", name: "Liberia", dial: "231"},
	{iso: "ly", name: "Libya", dial: "218"},
	{iso: "li", name: "Liechtenstein", dial: "423"},
	{iso: "lt", name: "Lithuania (Lietuva)", dial: "370"},
	{iso: "lu", name: "Luxembourg", dial: "352"},
	{iso: "mo", name: "Macau", dial: "853"},
	{iso: "mk", name: "Macedonia", dial: "389"},
	{iso: "mg", name: "Madagascar (Madagasikara)", dial: "261"},
	{iso: "mw", name: "Malawi", dial: "265"},
	{iso: "my", name: "Malaysia", dial: "60"},
	{iso: "mv", name: "Maldives", dial: "960"},
	{iso: "ml", name: "Mali", dial: "223"},
	{iso: "mt", name: "Malta", dial: "356"},
	{iso: "mh", name: "Marshall Islands", dial: "692"},
	{iso: "mq", name: "Martinique", dial: "596"},
	{iso: "mr", name: "Mauritania", dial: "222"},
	{iso: "mu", name: "Mauritius (Moris)", dial: "230"},
	{iso: "yt", name: "Mayotte", dial: "262", priority: 1, areas: []string{"269", "639"}},
	{iso: "mx", name: "Mexico", dial: "52"},
	{iso: "fm", name: "Micronesia", dial: "691"},
	{iso: "md", name: "Moldova (Republica Moldova)", dial: "373"},
	{iso: "mc", name: "Monaco", dial: "377"},
	{iso: "mn", name: "Mongolia", dial: "976"},
	{iso: "me", name: "Montenegro (Crna Gora)", dial: "382"},
	{iso: "ms", name: "Montserrat", dial: "1", priority: 16, areas: []string{"664"}},
	{iso: "ma", name: "Morocco", dial: "212"},
	{iso: "mz", name: "Mozambique", dial: "258"},
	{iso: "mm", name: "Myanmar", dial: "95"},
	{iso: "na", name: "Namibia", dial: "264"},
	{iso: "nr", name: "Nauru", dial: "674"},
	{iso: "np", name: "Nepal", dial: "977"},
	{iso: "nl", name: "Netherlands (Nederland)", dial: "31"},
	{iso: "nc", name: "New Caledonia", dial: "687"},
	{iso: "nz", name: "New Zealand", dial: "64"},
	{iso: "ni", name: "Nicaragua", dial: "505"},
	{iso: "ne", name: "Niger (Nijar)", dial: "227"},
	{iso: "ng", name: "Nigeria", dial: "234"},
	{iso: "nu", name: "Niue", dial: "683"},
	{iso: "nf", name: "Norfolk Island", dial: "672"},
	{iso: "kp", name: "North Korea", dial: "850"},
	{iso: "mp", name: "Northern Mariana Islands", dial: "1", priority: 17, areas: []string{"670"}},
	{iso: "no", name: "Norway (Norge)", dial: "47"},
	{iso: "om", name: "Oman", dial: "968"},
	{iso: "pk", name: "Pakistan", dial: "92"},
	{iso: "pw", name: "Palau", dial: "680"},
	{iso: "ps", name: "Palestine", dial: "970"},
	{iso: "pa", name: "Panama", dial: "507"},
	{iso: "pg", name: "Papua New Guinea", dial: "675"},
	{iso: "py", name: "Paraguay", dial: "595"},
	{iso: "pe", name: "Peru", dial: "51"},
	{iso: "ph", name: "Philippines", dial: "63"},
	{iso: "pl", name: "Poland (Polska)", dial: "48"},
	{iso: "pt", name: "Portugal", dial: "351"},
	{iso: "pr", name: "Puerto Rico", dial: "1", priority: 3, areas: []string{"787", "939"}},
	{iso: "qa", name: "Qatar", dial: "974"},
	{iso: "re", name: "Réunion", dial: "262"},
	{iso: "ro", name: "Romania", dial: "40"},
	{iso: "ru", name: "Russia", dial: "7"},
	{iso: "rw", name: "Rwanda", dial: "250"},
	{iso: "bl", name: "Saint Barthélemy", dial: "590", priority: 1},
	{iso: "sh", name: "Saint Helena", dial: "290"},
	{iso: "kn", name: "Saint Kitts and Nevis", dial: "1", priority: 18, areas: []string{"869"}},
	{iso: "lc", name: "Saint Lucia", dial: "1", priority: 19, areas: []string{"758"}},
	{iso: "mf", name: "Saint Martin", dial: "590", priority: 2},
	{iso: "pm", name: "Saint Pierre and Miquelon (Saint-Pierre-et-Miquelon)", dial: "508"},
	{iso: "vc", name: "Saint Vincent and the Grenadines", dial: "1", priority: 20, areas: []string{"784"}},
	{iso: "ws", name: "Samoa", dial: "685"},
	{iso: "sm", name: "San Marino", dial: "378"},
	{iso: "st", name: "São Tomé and Príncipe", dial: "239"},
	{iso: "sa", name: "Saudi Arabia", dial: "966"},
	{iso: "sn", name: "Senegal", dial: "221"},
	{iso: "rs", name: "Serbia", dial: "381"},
	{iso: "sc", name: "Seychelles", dial: "248"},
	{iso: "sl", name: "Sierra Leone", dial: "232"},
	{iso: "sg", name: "Singapore", dial: "65"},
	{iso: "sx", name: "Sint Maarten", dial: "1", priority: 21, areas: []string{"721"}},
	{iso: "sk", name: "Slovakia (Slovensko)", dial: "421"},
	{iso: "si", name: "Slovenia (Slovenija)", dial: "386"},
	{iso: "sb", name: "Solomon Islands", dial: "677"},
	{iso: "so", name: "Somalia (Soomaaliya)", dial: "252"},
	{iso: "za", name: "South Africa", dial: "27"},
	{iso: "kr", name: "South Korea", dial: "82"},
	{iso: "ss", name: "South Sudan", dial: "211"},
	{iso: "es", name: "Spain", dial: "34"},
	{iso: "lk", name: "Sri Lanka", dial: "94"},
	{iso: "sd", name: "Sudan", dial: "249"},
	{iso: "sr", name: "Suriname", dial: "597"},
	{iso: "sj", name: "Svalbard and Jan Mayen", dial: "47", priority: 1, areas: []string{"79"}},
	{iso: "sz", name: "Swaziland", dial: "268"},
	{iso: "se", name: "Sweden (Sverige)", dial: "46"},
	{iso: "ch", name: "Switzerland (Schweiz)", dial: "41"},
	{iso: "sy", name: "Syria", dial: "963"},
	{iso: "tw", name: "Taiwan", dial: "886"},
	{iso: "tj", name: "Tajikistan", dial: "992"},
	{iso: "tz", name: "Tanzania", dial: "255"},
	{iso: "th", name: "Thailand", dial: "66"},
	{iso: "tl", name: "Timor-Leste", dial: "670"},
	{iso: "tg", name: "Togo", dial: "228"},
	{iso: "tk", name: "Tokelau", dial: "690"},
	{iso: "to", name: "Tonga", dial: "676"},
	{iso: "tt", name: "Trinidad and Tobago", dial: "1", priority: 22, areas: []string{"868"}},
	{iso: "tn", name: "Tunisia", dial: "216"},
	{iso: "tr", name: "Turkey", dial: "90"},
	{iso: "tm", name: "Turkmenistan", dial: "993"},
	{iso: "tc", name: "Turks and Caicos Islands", dial: "1", priority: 23, areas: []string{"649"}},
	{iso: "tv", name: "Tuvalu", dial: "688"},
	{iso: "vi", name: "U.S. Virgin Islands", dial: "1", priority: 24, areas: []string{"340"}},
	{iso: "ug", name: "Uganda", dial: "256"},
	{iso: "ua", name: "Ukraine", dial: "380"},
	{iso: "ae", name: "United Arab Emirates", dial: "971"},
	{iso: "gb", name: "United Kingdom", dial: "44"},
	{iso: "us", name: "United States", dial: "1"},
	{iso: "uy", name: "Uruguay", dial: "598"},
	{iso: "uz", name: "Uzbekistan", dial: "998"},
	{iso: "vu", name: "Vanuatu", dial: "678"},
	{iso: "va", name: "Vatican City", dial: "39", priority: 1, areas: []string{"06698"}},
	{iso: "ve", name: "Venezuela", dial: "58"},
	{iso: "vn", name: "Vietnam", dial: "84"},
	{iso: "wf", name: "Wallis and Futuna (Wallis-et-Futuna)", dial: "681"},
	{iso: "eh", name: "Western Sahara", dial: "212", priority: 1, areas: []string{"5288", "5289"}},
	{iso: "ye", name: "Yemen", dial: "967"},
	{iso: "zm", name: "Zambia", dial: "260"},
	{iso: "zw", name: "Zimbabwe", dial: "263"},
	{iso: "ax", name: "Åland Islands", dial: "358", priority: 1, areas: []string{"18"}},
}
