package llm

import "strings"

const (
	LanguageEnglish = "english"
	LanguageHindi   = "hindi"
)

type cannedAnswer struct {
	key    string
	answer string
}

type intentReply struct {
	english string
	hindi   string
}

// Topic answers are checked in order; the first key contained in the
// lowercased message wins.
var englishAnswers = []cannedAnswer{
	{
		key:    "what is mutual fund",
		answer: "A mutual fund is an investment vehicle that pools money from multiple investors to purchase securities like stocks and bonds. It's managed by professional fund managers who allocate assets to try to produce income or capital gains for the fund's investors. Mutual funds offer benefits like diversification, professional management, and liquidity. In India, you can start investing in mutual funds with as little as ₹500 per month through a Systematic Investment Plan (SIP).",
	},
	{
		key:    "how to invest",
		answer: "To start investing in India, follow these steps:\n\n1. Set clear financial goals and timeframes\n2. Build an emergency fund first (3-6 months of expenses)\n3. Choose investments based on your risk tolerance and time horizon\n4. Consider starting with:\n   - Mutual funds through SIPs\n   - Public Provident Fund (PPF) for tax benefits\n   - Fixed deposits for stability\n5. Diversify your investments across asset classes\n6. Review and rebalance your portfolio periodically\n\nConsider consulting with a financial advisor for personalized guidance.",
	},
	{
		key:    "best investment",
		answer: "There's no single 'best' investment as it depends on your goals, risk tolerance, and time horizon. Here are some popular options in India:\n\n- Equity mutual funds: For long-term growth (5+ years)\n- PPF/EPF: For tax benefits and steady returns\n- Fixed deposits: For capital preservation and regular income\n- Government bonds: For stability and regular interest\n- National Pension System (NPS): For retirement planning\n- Real estate: For long-term appreciation and rental income\n\nA balanced portfolio typically includes a mix of these based on your personal financial situation.",
	},
	{
		key:    "tax saving",
		answer: "In India, you can save taxes through various investment options under Section 80C of the Income Tax Act (up to ₹1.5 lakh deduction):\n\n- Equity-Linked Saving Schemes (ELSS): Mutual funds with 3-year lock-in\n- Public Provident Fund (PPF): 15-year investment with tax-free returns\n- National Pension System (NPS): Additional ₹50,000 deduction under 80CCD(1B)\n- Tax-saving Fixed Deposits: 5-year lock-in period\n- Life Insurance Premiums\n- Health Insurance Premiums (Section 80D)\n- Home Loan Principal (Section 80C) and Interest (Section 24)\n\nConsider your overall financial plan when choosing tax-saving investments, not just the tax benefits.",
	},
	{
		key:    "stock market",
		answer: "The Indian stock market consists primarily of the BSE (Bombay Stock Exchange) and NSE (National Stock Exchange). To invest in stocks:\n\n1. Open a demat and trading account with a broker\n2. Complete KYC verification\n3. Transfer funds to your trading account\n4. Research companies before investing\n5. Consider starting with blue-chip companies or index funds\n\nStock investments carry higher risk but potentially higher returns compared to fixed-income options. For beginners, index funds or ETFs that track market indices like Nifty 50 or Sensex are often recommended as they provide diversification.",
	},
	{
		key:    "retirement planning",
		answer: "Effective retirement planning in India includes:\n\n1. Start early to benefit from compounding\n2. Calculate your retirement corpus based on:\n   - Current expenses\n   - Inflation (typically 6-7% in India)\n   - Expected retirement age\n   - Life expectancy\n3. Invest in a mix of:\n   - National Pension System (NPS)\n   - Public Provident Fund (PPF)\n   - Equity mutual funds for long-term growth\n   - Fixed deposits and government schemes\n4. Consider health insurance and medical costs\n5. Review and adjust your plan every few years\n\nThe power of compounding makes a significant difference—starting in your 20s or 30s requires much smaller monthly investments than starting in your 40s.",
	},
	{
		key:    "health insurance",
		answer: "Health insurance is crucial for financial planning in India. When choosing a policy:\n\n1. Coverage: Aim for at least ₹5-10 lakh per person\n2. Family floater vs. Individual plans: Family floaters are cost-effective for young families\n3. Network hospitals: Check if your preferred hospitals are covered\n4. Pre-existing conditions: Understand waiting periods\n5. Claim settlement ratio: Check insurer's track record\n6. Additional coverage: Look for features like maternity benefits, OPD coverage, etc.\n\nHealth insurance premiums also offer tax benefits under Section 80D of the Income Tax Act.",
	},
}

var hindiAnswers = []cannedAnswer{
	{
		key:    "what is mutual fund",
		answer: "म्यूचुअल फंड एक ऐसा निवेश माध्यम है जो कई निवेशकों से पैसा जुटाकर शेयर और बॉन्ड जैसी प्रतिभूतियों को खरीदता है। इसे पेशेवर फंड मैनेजर द्वारा प्रबंधित किया जाता है। म्यूचुअल फंड विविधीकरण, पेशेवर प्रबंधन और तरलता जैसे लाभ प्रदान करते हैं। भारत में, आप सिस्टमैटिक इन्वेस्टमेंट प्लान (SIP) के माध्यम से प्रति माह केवल ₹500 से म्यूचुअल फंड में निवेश शुरू कर सकते हैं।",
	},
	{
		key:    "how to invest",
		answer: "भारत में निवेश शुरू करने के लिए इन चरणों का पालन करें:\n\n1. स्पष्ट वित्तीय लक्ष्य और समय सीमा निर्धारित करें\n2. पहले आपातकालीन फंड बनाएं (3-6 महीने के खर्च)\n3. अपने जोखिम सहनशीलता और समय सीमा के आधार पर निवेश चुनें\n4. इनसे शुरुआत करने पर विचार करें:\n   - SIP के माध्यम से म्यूचुअल फंड\n   - कर लाभ के लिए पब्लिक प्रोविडेंट फंड (PPF)\n   - स्थिरता के लिए फिक्स्ड डिपॉजिट\n5. विभिन्न प्रकार के निवेशों में अपना पैसा बांटें\n6. समय-समय पर अपने पोर्टफोलियो की समीक्षा करें\n\nव्यक्तिगत मार्गदर्शन के लिए वित्तीय सलाहकार से परामर्श पर विचार करें।",
	},
}

var (
	greetingReply = intentReply{
		english: "Hello! I'm FinAI, your financial assistant. I can help answer your financial questions or provide investment advice. How can I assist you today?",
		hindi:   "नमस्ते! मैं FinAI हूं, आपका वित्तीय सहायक। मैं आपके वित्तीय प्रश्नों का उत्तर देने या निवेश सलाह देने में मदद कर सकता हूं। मैं आपकी कैसे सहायता कर सकता हूं?",
	}
	thanksReply = intentReply{
		english: "You're welcome! If you have any other questions, feel free to ask.",
		hindi:   "आपका स्वागत है! यदि आपके पास कोई अन्य प्रश्न हैं, तो बेझिझक पूछें।",
	}
	stocksReply = intentReply{
		english: "Investing in the stock market can be risky. As general advice, do your research, diversify, and only invest an amount you can afford to lose. Did you want to ask about a specific company or sector?",
		hindi:   "स्टॉक मार्केट में निवेश जोखिम भरा हो सकता है। सामान्य सलाह के रूप में, अपना शोध करें, विविधीकरण करें, और केवल वह राशि निवेश करें जिसे आप खोने का जोखिम उठा सकते हैं। क्या आप किसी विशिष्ट कंपनी या सेक्टर के बारे में पूछना चाहते हैं?",
	}
	mutualFundsReply = intentReply{
		english: "Mutual funds are a popular way to invest. Investing regularly through SIPs (Systematic Investment Plans) provides cost averaging benefits. Would you like to know about a specific type of fund, such as equity, debt, or hybrid?",
		hindi:   "म्यूचुअल फंड निवेश का एक लोकप्रिय तरीका हैं। SIP (सिस्टमैटिक इन्वेस्टमेंट प्लान) के माध्यम से नियमित रूप से निवेश करना औसत लागत लाभ प्रदान करता है। क्या आप किसी विशेष प्रकार के फंड के बारे में जानना चाहते हैं, जैसे इक्विटी, डेट, या हाइब्रिड?",
	}
	unknownReply = intentReply{
		english: "I'm sorry, I cannot provide a detailed answer to this question at the moment. Could you rephrase your question or provide more information? I can provide basic guidance on investment options, saving strategies, or financial planning.",
		hindi:   "मुझे खेद है, मैं वर्तमान में इस प्रश्न का विस्तृत उत्तर नहीं दे सकता। क्या आप अपना प्रश्न दोबारा पूछ सकते हैं या अधिक जानकारी प्रदान कर सकते हैं? मैं निवेश विकल्पों, बचत रणनीतियों, या वित्तीय योजना के बारे में बुनियादी मार्गदर्शन प्रदान कर सकता हूं।",
	}
)

// IsHindi reports whether a requested response language selects the Hindi
// tables. Anything else is answered in English.
func IsHindi(language string) bool {
	return strings.Contains(strings.ToLower(language), LanguageHindi)
}

func (r intentReply) in(language string) string {
	if IsHindi(language) {
		return r.hindi
	}
	return r.english
}

// MatchFallback answers a chat message from the canned tables without a
// provider. It always returns non-empty text.
func MatchFallback(message, language string) string {
	lower := strings.ToLower(message)

	answers := englishAnswers
	if IsHindi(language) {
		answers = hindiAnswers
	}
	for _, a := range answers {
		if strings.Contains(lower, a.key) {
			return a.answer
		}
	}

	switch {
	case strings.Contains(lower, "hello") || strings.Contains(lower, "hi ") || strings.Contains(lower, "namaste"):
		return greetingReply.in(language)
	case strings.Contains(lower, "thank"):
		return thanksReply.in(language)
	case strings.Contains(lower, "stock") || strings.Contains(lower, "share"):
		return stocksReply.in(language)
	case strings.Contains(lower, "mutual fund") || strings.Contains(lower, "sip"):
		return mutualFundsReply.in(language)
	}
	return unknownReply.in(language)
}
