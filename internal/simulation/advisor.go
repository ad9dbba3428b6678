package simulation

import "strings"

type QuickReply struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

var quickReplies = []QuickReply{
	{ID: "1", Text: "How to prevent pests in wheat?", Category: "pest"},
	{ID: "2", Text: "Best fertilizer for tomatoes?", Category: "fertilizer"},
	{ID: "3", Text: "When to harvest rice?", Category: "harvest"},
	{ID: "4", Text: "Symptoms of nitrogen deficiency", Category: "soil"},
	{ID: "5", Text: "Organic pest control methods", Category: "pest"},
	{ID: "6", Text: "Irrigation schedule for cotton", Category: "water"},
}

// QuickReplies returns the suggested starter questions shown under the chat box.
func QuickReplies() []QuickReply {
	out := make([]QuickReply, len(quickReplies))
	copy(out, quickReplies)
	return out
}

type topicRule struct {
	topic    string
	keywords []string
}

// Order matters: a question mentioning both pests and fertilizer gets the pest answer.
var topicRules = []topicRule{
	{"pest", []string{"pest", "insect", "bug"}},
	{"fertilizer", []string{"fertilizer", "npk", "nutrient"}},
	{"harvest", []string{"harvest", "when to cut"}},
	{"soil", []string{"nitrogen", "deficiency", "yellow leaves"}},
	{"water", []string{"irrigation", "water", "schedule"}},
}

// KeywordAdvisor answers from canned text chosen by keyword. It backs the
// offline chat mode and never fails.
type KeywordAdvisor struct{}

func NewKeywordAdvisor() *KeywordAdvisor {
	return &KeywordAdvisor{}
}

func (a *KeywordAdvisor) Topic(question string) string {
	q := strings.ToLower(question)
	for _, rule := range topicRules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				return rule.topic
			}
		}
	}
	return "default"
}

func (a *KeywordAdvisor) Reply(question string) string {
	return cannedAnswers[a.Topic(question)]
}

var cannedAnswers = map[string]string{
	"pest": `**Pest Management Tips:**

For effective pest control in crops, I recommend:

1. **Preventive Measures:**
   - Maintain crop rotation to break pest cycles
   - Remove crop residues after harvest
   - Use resistant varieties when available

2. **Organic Methods:**
   - Neem oil spray (5ml/liter water)
   - Introduce beneficial insects (ladybugs, lacewings)
   - Plant trap crops around main fields

3. **Chemical Control:**
   - Use only when pest threshold is exceeded
   - Follow recommended dosages
   - Rotate pesticide classes to prevent resistance

4. **Monitoring:**
   - Scout fields weekly
   - Use pheromone traps
   - Document pest populations

Would you like specific advice for a particular crop or pest?`,

	"fertilizer": `**Fertilizer Recommendations:**

The right fertilizer depends on your crop and soil conditions. Here's a general guide:

1. **Nitrogen (N):** Essential for leaf growth
   - Urea (46% N)
   - Ammonium Sulfate (21% N)
   - Apply in split doses

2. **Phosphorus (P):** Promotes root development
   - DAP (18-46-0)
   - SSP (16% P2O5)
   - Apply at sowing time

3. **Potassium (K):** Improves disease resistance
   - MOP (60% K2O)
   - SOP (50% K2O)

4. **Application Tips:**
   - Soil test before application
   - Use balanced NPK ratios
   - Consider organic alternatives (compost, vermicompost)

For tomatoes specifically, use 120:80:60 NPK kg/hectare. Would you like details for another crop?`,

	"harvest": `**Harvest Timing Guide:**

Harvesting at the right time is crucial for quality and yield:

**Key Indicators:**
1. **Grain Crops (Wheat/Rice):**
   - Moisture content: 20-25%
   - Golden yellow color
   - Hard dough stage
   - 80-90% maturity

2. **Vegetables:**
   - Firmness and color
   - Size appropriate for variety
   - Morning harvest preferred

3. **Best Practices:**
   - Use clean, sharp tools
   - Avoid harvesting in rain
   - Handle gently to prevent damage
   - Store in cool, dry place

**Rice Specific:**
- Harvest 25-30 days after flowering
- Panicles should bend down
- Grains should be 80% golden
- Moisture: 20-22%

Do you need harvesting guidelines for a specific crop?`,

	"soil": `**Nitrogen Deficiency - Identification & Treatment:**

**Symptoms:**
- Yellowing of older leaves (chlorosis)
- Stunted plant growth
- Thin, spindly stems
- Reduced tillering in grains
- Poor yield

**Quick Fix:**
1. **Immediate Application:**
   - Urea @ 50 kg/hectare
   - Split into 2-3 doses
   - Water immediately after application

2. **Foliar Spray:**
   - 2% Urea solution
   - Spray in early morning
   - Repeat after 7-10 days

3. **Long-term Solution:**
   - Add compost (5-10 tons/hectare)
   - Grow green manure crops
   - Apply FYM before sowing

**Prevention:**
- Soil testing before planting
- Balanced fertilization
- Crop rotation with legumes

Would you like recommendations for other nutrient deficiencies?`,

	"water": `**Irrigation Schedule Recommendations:**

Proper irrigation is essential for optimal crop growth:

**General Guidelines:**

1. **Critical Stages:**
   - Germination/seedling
   - Flowering
   - Grain filling
   - Never miss these stages!

2. **Irrigation Methods:**
   - **Drip:** 80-90% water efficiency
   - **Sprinkler:** 70-80% efficiency
   - **Flood:** 40-50% efficiency

3. **Schedule Factors:**
   - Soil type (sandy needs frequent, clay less)
   - Crop stage
   - Weather conditions
   - Soil moisture level

**Cotton Specific:**
- First irrigation: 3-4 weeks after sowing
- Frequency: Every 12-15 days
- Critical: Flowering & boll formation
- Stop 15-20 days before harvest

**Tips:**
- Irrigate in morning/evening
- Avoid water stress during flowering
- Check soil moisture at 6-inch depth

Need irrigation advice for another crop?`,

	"default": `Thank you for your question! I'm here to help with:

**Crop Management**
- Planting schedules
- Growth stages
- Best varieties

**Pest & Disease Control**
- Identification
- Treatment options
- Prevention methods

**Irrigation**
- Water requirements
- Scheduling
- Efficient methods

**Soil & Fertilizer**
- Nutrient management
- Soil testing
- Organic alternatives

**Market Guidance**
- Price trends
- Selling strategies
- Storage tips

Could you please provide more details about your question? For example, which crop are you growing, and what specific issue are you facing?`,
}
