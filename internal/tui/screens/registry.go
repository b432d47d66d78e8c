package screens

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/thereceipt/kantin-receipt/internal/printer"
	"github.com/thereceipt/kantin-receipt/internal/registry"
)

var (
	roleOptions  = []registry.Role{registry.RoleNone, registry.RoleCashier, registry.RoleKitchen}
	widthOptions = []int{0, 24, 32}
	roleLabels   = []string{"none", "cashier", "kitchen"}
	widthLabels  = []string{"default", "24 (58mm)", "32 (80mm)"}
)

// RegistryEditor is a screen for naming printers and setting their role,
// paper width and raster mode
type RegistryEditor struct {
	app              *tview.Application
	manager          *printer.Manager
	form             *tview.Form
	list             *tview.List
	details          *tview.TextView
	layout           *tview.Flex
	printerIDs       []string
	currentPrinterID string
}

// NewRegistryEditor creates a new registry editor screen
func NewRegistryEditor(app *tview.Application, manager *printer.Manager) *RegistryEditor {
	r := &RegistryEditor{
		app:     app,
		manager: manager,
	}

	r.setupUI()
	return r
}

func (r *RegistryEditor) setupUI() {
	r.list = tview.NewList()
	r.list.SetBorder(true)
	r.list.SetTitle("Printers")
	r.list.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		r.selectPrinter(index)
		r.app.SetFocus(r.form)
	})
	r.list.SetChangedFunc(func(index int, _, _ string, _ rune) {
		r.selectPrinter(index)
	})

	r.details = tview.NewTextView()
	r.details.SetBorder(true)
	r.details.SetTitle("Printer Details")
	r.details.SetDynamicColors(true)

	r.form = tview.NewForm()
	r.form.SetBorder(true)
	r.form.SetTitle("Printer Settings")
	r.form.AddInputField("Name", "", 30, nil, nil)
	r.form.AddDropDown("Role", roleLabels, 0, nil)
	r.form.AddDropDown("Paper", widthLabels, 0, nil)
	r.form.AddCheckbox("Raster", false, nil)
	r.form.AddButton("Save", func() {
		r.save()
	})
	r.form.AddButton("Cancel", func() {
		r.app.SetFocus(r.list)
	})

	rightPanel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(r.details, 0, 1, false).
		AddItem(r.form, 0, 1, false)

	r.layout = tview.NewFlex().
		AddItem(r.list, 0, 1, true).
		AddItem(rightPanel, 0, 2, false)

	r.list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEsc:
			return event // Let parent handle
		case tcell.KeyRune:
			switch event.Rune() {
			case 'r':
				r.Refresh()
				return nil
			case 'e':
				if r.list.GetItemCount() > 0 && r.currentPrinterID != "" {
					r.app.SetFocus(r.form)
				}
				return nil
			}
		}
		return event
	})

	r.Refresh()
}

// Refresh reloads the printer list
func (r *RegistryEditor) Refresh() {
	r.list.Clear()
	r.printerIDs = r.printerIDs[:0]

	printers := r.manager.GetAllPrinters()
	if len(printers) == 0 {
		r.list.AddItem("No printers detected", "Press 'r' to refresh", 0, nil)
		r.details.SetText("[yellow]Connect a printer or add one with 'printer add <host>'[white]")
		r.currentPrinterID = ""
		return
	}

	for _, p := range printers {
		secondary := strings.ToUpper(p.Type)
		if p.Role != "" {
			secondary += " • " + string(p.Role)
		}
		r.list.AddItem("🟢 "+p.DisplayName(), secondary, 0, nil)
		r.printerIDs = append(r.printerIDs, p.ID)
	}

	index := 0
	for i, id := range r.printerIDs {
		if id == r.currentPrinterID {
			index = i
		}
	}
	r.list.SetCurrentItem(index)
	r.selectPrinter(index)
}

func (r *RegistryEditor) selectPrinter(index int) {
	if index < 0 || index >= len(r.printerIDs) {
		return
	}

	p := r.manager.GetPrinter(r.printerIDs[index])
	if p == nil {
		return
	}
	r.currentPrinterID = p.ID

	r.details.SetText(describePrinter(p) + "\n[yellow]Press 'e' to edit, 'r' to refresh[white]")

	r.form.GetFormItem(0).(*tview.InputField).SetText(p.Name)
	r.form.GetFormItem(1).(*tview.DropDown).SetCurrentOption(indexOfRole(p.Role))
	r.form.GetFormItem(2).(*tview.DropDown).SetCurrentOption(indexOfWidth(p.Columns))
	r.form.GetFormItem(3).(*tview.Checkbox).SetChecked(p.Raster)
}

func (r *RegistryEditor) save() {
	if r.currentPrinterID == "" {
		r.details.SetText("[red]✗ No printer selected[white]")
		return
	}

	if r.manager.GetPrinter(r.currentPrinterID) == nil {
		r.details.SetText(fmt.Sprintf("[red]✗ Printer not found: %s[white]\n\n[yellow]Try refreshing the list[white]", r.currentPrinterID))
		return
	}

	name := strings.TrimSpace(r.form.GetFormItem(0).(*tview.InputField).GetText())
	roleIndex, _ := r.form.GetFormItem(1).(*tview.DropDown).GetCurrentOption()
	widthIndex, _ := r.form.GetFormItem(2).(*tview.DropDown).GetCurrentOption()
	raster := r.form.GetFormItem(3).(*tview.Checkbox).IsChecked()

	settings := registry.Settings{Raster: raster}
	if roleIndex >= 0 && roleIndex < len(roleOptions) {
		settings.Role = roleOptions[roleIndex]
	}
	if widthIndex >= 0 && widthIndex < len(widthOptions) {
		settings.Columns = widthOptions[widthIndex]
	}

	r.manager.SetPrinterName(r.currentPrinterID, name)
	if err := r.manager.SetPrinterSettings(r.currentPrinterID, settings); err != nil {
		r.details.SetText(fmt.Sprintf("[red]✗ %v[white]", err))
		return
	}

	r.Refresh()
	r.app.SetFocus(r.list)
	r.details.SetText(fmt.Sprintf("[green]✓ Settings saved[white]\n\n%s", describePrinter(r.manager.GetPrinter(r.currentPrinterID))))
}

func describePrinter(p *printer.Printer) string {
	if p == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]ID:[white] %s\n", p.ID)
	fmt.Fprintf(&b, "[yellow]Type:[white] %s\n", strings.ToUpper(p.Type))
	fmt.Fprintf(&b, "[yellow]Description:[white] %s\n", tview.Escape(p.Description))
	if p.Device != "" {
		fmt.Fprintf(&b, "[yellow]Device:[white] %s\n", p.Device)
	}
	if p.Host != "" {
		fmt.Fprintf(&b, "[yellow]Address:[white] %s:%d\n", p.Host, p.Port)
	}
	if p.VID > 0 {
		fmt.Fprintf(&b, "[yellow]USB:[white] %04x:%04x\n", p.VID, p.PID)
	}
	fmt.Fprintf(&b, "[yellow]Name:[white] %s\n", tview.Escape(p.Name))

	role := string(p.Role)
	if role == "" {
		role = "none"
	}
	width := "default"
	if p.Columns > 0 {
		width = fmt.Sprintf("%d columns", p.Columns)
	}
	fmt.Fprintf(&b, "[yellow]Role:[white] %s\n", role)
	fmt.Fprintf(&b, "[yellow]Paper:[white] %s\n", width)
	fmt.Fprintf(&b, "[yellow]Raster:[white] %v\n", p.Raster)
	return b.String()
}

func indexOfRole(role registry.Role) int {
	for i, r := range roleOptions {
		if r == role {
			return i
		}
	}
	return 0
}

func indexOfWidth(columns int) int {
	for i, w := range widthOptions {
		if w == columns {
			return i
		}
	}
	return 0
}

// GetRoot returns the root primitive for this screen
func (r *RegistryEditor) GetRoot() tview.Primitive {
	return r.layout
}
