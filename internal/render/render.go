// Package render builds every outbound message text. All copy is
// Portuguese; the rest of the bot never formats user-facing strings.
package render

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/kjlabs/bacbot/internal/picker"
	"github.com/kjlabs/bacbot/internal/score"
)

// Strategy is the display name of the current pick family shown on
// predictions. It rotates per post and carries no semantics.
type Strategy string

const (
	StrategyCombination Strategy = "COMBINAÇÃO"
	StrategyAlternate   Strategy = "ALTERNÂNCIA"
	StrategyRepeat      Strategy = "REPETIÇÃO"
)

// Strategies lists the display names in rotation order.
var Strategies = []Strategy{StrategyCombination, StrategyAlternate, StrategyRepeat}

var hitPhrases = []string{
	"✅ GREEN! Lucro garantido! 💰",
	"✅ GREEN! Mais uma pra conta! 🤑",
	"✅ GREEN! A banca não aguenta! 🔥",
	"✅ GREEN! Seguimos lucrando! 💵",
}

var missPhrases = []string{
	"❌ RED. Respira, o próximo vem! 🎯",
	"❌ RED. Gestão de banca e bora! 💪",
	"❌ RED. Faz parte, recuperamos já! 🔄",
}

// Startup is the post announcing the bot came online.
func Startup(channelTitle string, now time.Time) string {
	var b strings.Builder
	b.WriteString("🤖 BOT ONLINE! 🟢\n\n")
	fmt.Fprintf(&b, "🎰 %s está no ar!\n", channelTitle)
	fmt.Fprintf(&b, "🕐 %s\n\n", now.Format("02/01/2006 15:04"))
	b.WriteString("🎲 Palpites de Bac Bo a cada rodada\n")
	b.WriteString("💰 Gestão com até 1 gale\n")
	b.WriteString("🍀 Boa sorte a todos!")
	return b.String()
}

// Prediction renders the main pick post.
func Prediction(label picker.Label, strategy Strategy, defensive bool, snap score.Snapshot, now time.Time) string {
	var b strings.Builder
	b.WriteString("🎲 PALPITE BAC BO 🎲\n\n")
	fmt.Fprintf(&b, "🎯 Aposte em: %s\n", label)
	fmt.Fprintf(&b, "♟ Estratégia: %s\n", strategy)
	if defensive {
		b.WriteString("🛡 Modo proteção ativo\n")
	}
	b.WriteString("💰 Proteja com até 1 gale\n\n")
	fmt.Fprintf(&b, "📊 Assertividade: %d%%\n", snap.Rate)
	fmt.Fprintf(&b, "✅ %d  ❌ %d\n", snap.Hits, snap.Misses)
	fmt.Fprintf(&b, "🕐 %s", now.Format("15:04"))
	return b.String()
}

// Interim is the short teaser posted between predictions and deleted
// moments later.
func Interim() string {
	return "⏳ Analisando padrões... próximo palpite em instantes! 🔍"
}

// Outcome announces the result of the previous pick, varying the
// phrasing with the provided source of randomness.
func Outcome(hit bool, rnd *rand.Rand) string {
	if hit {
		return hitPhrases[rnd.Intn(len(hitPhrases))]
	}
	return missPhrases[rnd.Intn(len(missPhrases))]
}

// Scoreboard is the periodic stats post.
func Scoreboard(snap score.Snapshot, now time.Time) string {
	var b strings.Builder
	b.WriteString("📊 PLACAR DO DIA 📊\n\n")
	fmt.Fprintf(&b, "✅ Greens: %d/%d\n", snap.Hits, score.GreenGoal)
	fmt.Fprintf(&b, "❌ Reds: %d/%d\n", snap.Misses, score.RedGoal)
	fmt.Fprintf(&b, "🎯 Assertividade: %d%%\n", snap.Rate)
	fmt.Fprintf(&b, "🔥 Sequência máxima: %d greens\n", snap.MaxGreen)
	fmt.Fprintf(&b, "🕐 %s\n\n", now.Format("15:04"))
	b.WriteString("💰 Bora lucrar juntos! 🚀")
	return b.String()
}

// CycleReset announces a fresh counting cycle with the closing totals.
func CycleReset(closing score.Snapshot) string {
	var b strings.Builder
	b.WriteString("🔄 NOVO CICLO! 🔄\n\n")
	fmt.Fprintf(&b, "Ciclo encerrado com %d greens e %d reds.\n", closing.Hits, closing.Misses)
	b.WriteString("Contadores zerados, bora pra mais uma rodada de lucros! 💰")
	return b.String()
}

// Welcome greets a user starting a private chat.
func Welcome(firstName, channelHandle string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👋 Olá, %s!\n\n", firstName)
	b.WriteString("🎲 Sou o bot de palpites de Bac Bo.\n")
	fmt.Fprintf(&b, "📢 Acompanhe os sinais no canal %s\n\n", channelHandle)
	b.WriteString("Comandos:\n")
	b.WriteString("/palpite - receber um palpite agora\n")
	b.WriteString("/status - situação do bot\n")
	b.WriteString("/help - ajuda")
	return b.String()
}

// Help lists the available commands.
func Help() string {
	var b strings.Builder
	b.WriteString("📖 COMANDOS 📖\n\n")
	b.WriteString("/start - iniciar conversa\n")
	b.WriteString("/palpite - palpite imediato\n")
	b.WriteString("/status - situação do bot\n")
	b.WriteString("/reactions - estatísticas de reações\n")
	b.WriteString("/test - verificação rápida\n")
	b.WriteString("/help - esta mensagem")
	return b.String()
}

// Status summarizes liveness for /status.
func Status(active bool, snap score.Snapshot, uptime time.Duration) string {
	state := "🟢 Operando normalmente"
	if !active {
		state = "🟡 Sem atividade recente"
	}
	var b strings.Builder
	b.WriteString("🤖 STATUS DO BOT\n\n")
	fmt.Fprintf(&b, "%s\n", state)
	fmt.Fprintf(&b, "⏱ Online há %s\n", uptime.Round(time.Second))
	fmt.Fprintf(&b, "✅ %d greens  ❌ %d reds\n", snap.Hits, snap.Misses)
	fmt.Fprintf(&b, "🎯 Assertividade: %d%%", snap.Rate)
	return b.String()
}

// MonitorReport is the admin-only health dump.
func MonitorReport(report string) string {
	return "🩺 MONITOR\n\n" + report
}

// ReactionStats summarizes reaction totals for /reactions.
func ReactionStats(tracked int, totals map[string]int, order []string) string {
	var b strings.Builder
	b.WriteString("📈 REAÇÕES 📈\n\n")
	fmt.Fprintf(&b, "Mensagens acompanhadas: %d\n", tracked)
	for _, emoji := range order {
		if totals[emoji] > 0 {
			fmt.Fprintf(&b, "%s %d\n", emoji, totals[emoji])
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// PrivateFallback prefixes a post delivered to a private chat because
// no channel accepted it.
func PrivateFallback(text string) string {
	return "⚠️ Canal indisponível, enviando em privado:\n\n" + text
}

// BonusBlock is an occasional extra tip appended to a prediction.
func BonusBlock(label picker.Label) string {
	return fmt.Sprintf("\n\n🎁 BÔNUS: fica de olho também em %s", label)
}

// Restarting is posted when the watchdog bounces the bot.
func Restarting() string {
	return "🔄 Reiniciando sistemas... voltamos em instantes! ⚙️"
}
